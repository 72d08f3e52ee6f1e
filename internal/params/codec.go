// Package params converts friction models to and from flat parameter
// vectors for the calibration engine. The field order per variant is fixed
// and round-trips exactly.
package params

import (
	"fmt"
	"math"

	"github.com/san-kum/tribofit/internal/friction"
)

// Encode flattens a model into its parameter vector. Orders:
//
//	coulomb:       [coefficient]
//	hyperbolic:    [friction, normalization, dissipation, hysteresis, stribeck, viscous]
//	lugre:         [static, coulomb, stribeck, stiffness, damping, viscous]
//	elastoplastic: [static, coulomb, stribeck, stiffness, damping, breakaway, max, viscous]
//	gms:           [elementCount, static, coulomb, attraction, stribeck, viscous,
//	                k_1, c_1, scale_1, ..., k_n, c_n, scale_n]
func Encode(m friction.Model) []float64 {
	switch mm := m.(type) {
	case friction.Coulomb:
		return []float64{mm.Coefficient}
	case friction.Hyperbolic:
		return []float64{
			mm.FrictionCoefficient, mm.NormalizationCoefficient, mm.DissipationCoefficient,
			mm.HysteresisCoefficient, mm.StribeckVelocity, mm.ViscousDamping,
		}
	case friction.LuGre:
		return []float64{
			mm.StaticCoefficient, mm.CoulombCoefficient, mm.StribeckVelocity,
			mm.BristleStiffness, mm.BristleDamping, mm.ViscousDamping,
		}
	case friction.ElastoPlastic:
		return []float64{
			mm.StaticCoefficient, mm.CoulombCoefficient, mm.StribeckVelocity,
			mm.BristleStiffness, mm.BristleDamping, mm.BreakawayDisplacement,
			mm.MaxBristleDisplacement, mm.ViscousDamping,
		}
	case friction.GeneralizedMaxwellSlip:
		vec := make([]float64, 0, 6+3*len(mm.Elements))
		vec = append(vec, float64(len(mm.Elements)),
			mm.StaticCoefficient, mm.CoulombCoefficient, mm.AttractionParameter,
			mm.StribeckVelocity, mm.ViscousDamping)
		for _, el := range mm.Elements {
			vec = append(vec, el.Stiffness, el.Damping, el.ScaleFactor)
		}
		return vec
	}
	return nil
}

// Decode rebuilds a model of the given kind from its parameter vector.
// A wrong vector length, or for GMS a fractional or negative element
// count, is a configuration error.
func Decode(kind friction.Kind, vec []float64) (friction.Model, error) {
	switch kind {
	case friction.KindCoulomb:
		if len(vec) != 1 {
			return nil, badLength(kind, 1, len(vec))
		}
		return friction.Coulomb{Coefficient: vec[0]}, nil
	case friction.KindHyperbolic:
		if len(vec) != 6 {
			return nil, badLength(kind, 6, len(vec))
		}
		return friction.Hyperbolic{
			FrictionCoefficient:      vec[0],
			NormalizationCoefficient: vec[1],
			DissipationCoefficient:   vec[2],
			HysteresisCoefficient:    vec[3],
			StribeckVelocity:         vec[4],
			ViscousDamping:           vec[5],
		}, nil
	case friction.KindLuGre:
		if len(vec) != 6 {
			return nil, badLength(kind, 6, len(vec))
		}
		return friction.LuGre{
			StaticCoefficient:  vec[0],
			CoulombCoefficient: vec[1],
			StribeckVelocity:   vec[2],
			BristleStiffness:   vec[3],
			BristleDamping:     vec[4],
			ViscousDamping:     vec[5],
		}, nil
	case friction.KindElastoPlastic:
		if len(vec) != 8 {
			return nil, badLength(kind, 8, len(vec))
		}
		return friction.ElastoPlastic{
			StaticCoefficient:      vec[0],
			CoulombCoefficient:     vec[1],
			StribeckVelocity:       vec[2],
			BristleStiffness:       vec[3],
			BristleDamping:         vec[4],
			BreakawayDisplacement:  vec[5],
			MaxBristleDisplacement: vec[6],
			ViscousDamping:         vec[7],
		}, nil
	case friction.KindGMS:
		if len(vec) < 6 {
			return nil, friction.Configf("gms vector needs at least 6 entries, got %d", len(vec))
		}
		count := vec[0]
		if count < 0 || count != math.Trunc(count) {
			return nil, friction.Configf("gms element count must be a non-negative integer, got %g", count)
		}
		n := int(count)
		if len(vec) != 6+3*n {
			return nil, badLength(kind, 6+3*n, len(vec))
		}
		m := friction.GeneralizedMaxwellSlip{
			Elements:            make([]friction.MaxwellElement, n),
			StaticCoefficient:   vec[1],
			CoulombCoefficient:  vec[2],
			AttractionParameter: vec[3],
			StribeckVelocity:    vec[4],
			ViscousDamping:      vec[5],
		}
		for i := 0; i < n; i++ {
			m.Elements[i] = friction.MaxwellElement{
				Stiffness:   vec[6+3*i],
				Damping:     vec[7+3*i],
				ScaleFactor: vec[8+3*i],
			}
		}
		return m, nil
	}
	return nil, friction.Configf("unknown model kind %q", kind)
}

// Names returns the human-readable parameter names in codec order for a
// model, matching the layout of Encode.
func Names(m friction.Model) []string {
	switch mm := m.(type) {
	case friction.Coulomb:
		return []string{"coefficient"}
	case friction.Hyperbolic:
		return []string{"friction", "normalization", "dissipation", "hysteresis", "stribeck_velocity", "viscous_damping"}
	case friction.LuGre:
		return []string{"static", "coulomb", "stribeck_velocity", "bristle_stiffness", "bristle_damping", "viscous_damping"}
	case friction.ElastoPlastic:
		return []string{"static", "coulomb", "stribeck_velocity", "bristle_stiffness", "bristle_damping", "breakaway_displacement", "max_displacement", "viscous_damping"}
	case friction.GeneralizedMaxwellSlip:
		names := []string{"element_count", "static", "coulomb", "attraction", "stribeck_velocity", "viscous_damping"}
		for i := range mm.Elements {
			names = append(names,
				fmt.Sprintf("stiffness_%d", i+1), fmt.Sprintf("damping_%d", i+1), fmt.Sprintf("scale_%d", i+1))
		}
		return names
	}
	return nil
}

// KindFromString maps a config/CLI name to a variant kind.
func KindFromString(s string) (friction.Kind, error) {
	for _, k := range friction.Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", friction.Configf("unknown model kind %q", s)
}

func badLength(kind friction.Kind, want, got int) error {
	return friction.Configf("%s vector needs %d entries, got %d", kind, want, got)
}

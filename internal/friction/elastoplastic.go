package friction

import "math"

// ElastoPlastic extends LuGre with an adhesion function that keeps the
// bristle purely elastic below a breakaway displacement, eliminating drift
// at rest (Dupont et al.).
type ElastoPlastic struct {
	StaticCoefficient      float64
	CoulombCoefficient     float64
	StribeckVelocity       float64
	BristleStiffness       float64
	BristleDamping         float64
	BreakawayDisplacement  float64
	MaxBristleDisplacement float64
	ViscousDamping         float64
}

func NewElastoPlastic() ElastoPlastic {
	return ElastoPlastic{
		StaticCoefficient:      0.35,
		CoulombCoefficient:     0.25,
		StribeckVelocity:       0.01,
		BristleStiffness:       1e5,
		BristleDamping:         300.0,
		BreakawayDisplacement:  5e-6,
		MaxBristleDisplacement: 1e-5,
		ViscousDamping:         0.0,
	}
}

func (ElastoPlastic) Kind() Kind { return KindElastoPlastic }

func (ElastoPlastic) StateDim() int { return 1 }

func (m ElastoPlastic) Validate() error {
	if m.StribeckVelocity == 0 {
		return &ParamError{Kind: KindElastoPlastic, Wrapped: ErrZeroStribeckVelocity}
	}
	if m.MaxBristleDisplacement <= m.BreakawayDisplacement {
		return &ParamError{Kind: KindElastoPlastic, Wrapped: ErrDisplacementOrder}
	}
	return nil
}

func (m ElastoPlastic) stribeck(normal, v float64) float64 {
	fc := m.CoulombCoefficient * normal
	fs := m.StaticCoefficient * normal
	r := v / m.StribeckVelocity
	return fc + (fs-fc)*math.Exp(-r*r)
}

// alpha is the adhesion factor: 0 up to the breakaway displacement, 1 from
// the maximum displacement on, with a half-sine ramp in between. It depends
// on |z| only and is continuous at both thresholds.
func (m ElastoPlastic) alpha(z float64) float64 {
	az := math.Abs(z)
	switch {
	case az <= m.BreakawayDisplacement:
		return 0
	case az >= m.MaxBristleDisplacement:
		return 1
	}
	mid := (m.BreakawayDisplacement + m.MaxBristleDisplacement) / 2
	return 0.5 * (1 + math.Sin(math.Pi*(az-mid)/(m.MaxBristleDisplacement-m.BreakawayDisplacement)))
}

func (m ElastoPlastic) StateDerivative(t, normal, position, velocity float64, z []float64) []float64 {
	g := m.stribeck(normal, velocity)
	a := m.alpha(z[0])
	return []float64{velocity * (1 - a*m.BristleStiffness*sign(velocity)*z[0]/g)}
}

func (m ElastoPlastic) ForceFromState(t, normal, position, velocity float64, z, dz []float64) float64 {
	r := velocity / m.StribeckVelocity
	return m.BristleStiffness*z[0] + m.BristleDamping*math.Exp(-r*r)*dz[0] + m.ViscousDamping*velocity
}

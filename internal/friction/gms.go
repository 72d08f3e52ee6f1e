package friction

import "math"

// MaxwellElement is one elasto-slip element of the Generalized Maxwell
// Slip model.
type MaxwellElement struct {
	Stiffness   float64
	Damping     float64
	ScaleFactor float64
}

// GeneralizedMaxwellSlip runs N Maxwell elements in parallel, each with its
// own bristle state z_i and stick/slip switching against a shared Stribeck
// bound. With no elements it degenerates to pure viscous damping.
type GeneralizedMaxwellSlip struct {
	Elements            []MaxwellElement
	StaticCoefficient   float64
	CoulombCoefficient  float64
	AttractionParameter float64
	StribeckVelocity    float64
	ViscousDamping      float64
}

func NewGeneralizedMaxwellSlip(n int) GeneralizedMaxwellSlip {
	elements := make([]MaxwellElement, n)
	for i := range elements {
		elements[i] = MaxwellElement{
			Stiffness:   1e5,
			Damping:     100.0,
			ScaleFactor: 1.0 / float64(n),
		}
	}
	return GeneralizedMaxwellSlip{
		Elements:            elements,
		StaticCoefficient:   0.35,
		CoulombCoefficient:  0.25,
		AttractionParameter: 10.0,
		StribeckVelocity:    0.01,
		ViscousDamping:      0.0,
	}
}

func (GeneralizedMaxwellSlip) Kind() Kind { return KindGMS }

func (m GeneralizedMaxwellSlip) StateDim() int { return len(m.Elements) }

func (m GeneralizedMaxwellSlip) Validate() error {
	if m.StribeckVelocity == 0 {
		return &ParamError{Kind: KindGMS, Wrapped: ErrZeroStribeckVelocity}
	}
	return nil
}

func (m GeneralizedMaxwellSlip) stribeck(normal, v float64) float64 {
	fc := m.CoulombCoefficient * normal
	fs := m.StaticCoefficient * normal
	r := v / m.StribeckVelocity
	return fc + (fs-fc)*math.Exp(-r*r)
}

// StateDerivative applies the per-element switching rule: an element sticks
// (dz_i/dt = v) while |z_i| stays within its scaled Stribeck bound, and
// relaxes toward that bound once it slips.
func (m GeneralizedMaxwellSlip) StateDerivative(t, normal, position, velocity float64, z []float64) []float64 {
	s := m.stribeck(normal, velocity)
	dz := make([]float64, len(m.Elements))
	for i, el := range m.Elements {
		bound := el.ScaleFactor * s
		if math.Abs(z[i]) <= math.Abs(bound) {
			dz[i] = velocity
		} else {
			dz[i] = sign(velocity) * el.ScaleFactor * m.AttractionParameter * (1 - z[i]/bound)
		}
	}
	return dz
}

func (m GeneralizedMaxwellSlip) ForceFromState(t, normal, position, velocity float64, z, dz []float64) float64 {
	f := m.ViscousDamping * velocity
	for i, el := range m.Elements {
		f += el.Stiffness*z[i] + el.Damping*dz[i]
	}
	return f
}

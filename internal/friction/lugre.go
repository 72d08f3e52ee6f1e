package friction

import "math"

// LuGre is the single-bristle dynamic friction model of Canudas de Wit et
// al. The internal state z is the average bristle deflection.
type LuGre struct {
	StaticCoefficient  float64
	CoulombCoefficient float64
	StribeckVelocity   float64
	BristleStiffness   float64
	BristleDamping     float64
	ViscousDamping     float64
}

func NewLuGre() LuGre {
	return LuGre{
		StaticCoefficient:  0.35,
		CoulombCoefficient: 0.25,
		StribeckVelocity:   0.01,
		BristleStiffness:   1e5,
		BristleDamping:     300.0,
		ViscousDamping:     0.0,
	}
}

func (LuGre) Kind() Kind { return KindLuGre }

func (LuGre) StateDim() int { return 1 }

func (m LuGre) Validate() error {
	if m.StribeckVelocity == 0 {
		return &ParamError{Kind: KindLuGre, Wrapped: ErrZeroStribeckVelocity}
	}
	return nil
}

// stribeck blends the static and Coulomb friction levels,
// g(v) = Fc + (Fs-Fc)*exp(-(v/vs)^2).
func (m LuGre) stribeck(normal, v float64) float64 {
	fc := m.CoulombCoefficient * normal
	fs := m.StaticCoefficient * normal
	r := v / m.StribeckVelocity
	return fc + (fs-fc)*math.Exp(-r*r)
}

func (m LuGre) StateDerivative(t, normal, position, velocity float64, z []float64) []float64 {
	g := m.stribeck(normal, velocity)
	return []float64{velocity - m.BristleStiffness*math.Abs(velocity)*z[0]/g}
}

func (m LuGre) ForceFromState(t, normal, position, velocity float64, z, dz []float64) float64 {
	r := velocity / m.StribeckVelocity
	return m.BristleStiffness*z[0] + m.BristleDamping*math.Exp(-r*r)*dz[0] + m.ViscousDamping*velocity
}

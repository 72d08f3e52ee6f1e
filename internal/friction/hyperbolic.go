package friction

import "math"

// Hyperbolic is a memoryless law shaping the force-velocity curve with
// tanh/atan terms, capturing Stribeck-like dips without internal state.
type Hyperbolic struct {
	FrictionCoefficient      float64
	NormalizationCoefficient float64
	DissipationCoefficient   float64
	HysteresisCoefficient    float64
	StribeckVelocity         float64
	ViscousDamping           float64
}

func NewHyperbolic() Hyperbolic {
	return Hyperbolic{
		FrictionCoefficient:      0.3,
		NormalizationCoefficient: 1.0,
		DissipationCoefficient:   100.0,
		HysteresisCoefficient:    1.0,
		StribeckVelocity:         1.0,
		ViscousDamping:           0.0,
	}
}

func (Hyperbolic) Kind() Kind { return KindHyperbolic }

func (Hyperbolic) StateDim() int { return 0 }

func (Hyperbolic) Validate() error { return nil }

// Force uses the same sign convention as Coulomb: the tanh term carries
// sign(d*v). At v == 0 the tanh factor would be 0 raised to a possibly
// negative exponent; it is defined as 0 so only the viscous term remains.
func (h Hyperbolic) Force(normal, velocity float64) float64 {
	viscous := h.ViscousDamping * velocity
	dv := h.DissipationCoefficient * velocity
	if dv == 0 {
		return viscous
	}
	num := math.Pow(math.Tanh(math.Abs(dv)), 2*h.HysteresisCoefficient-1)
	den := 1 + math.Pow(math.Atan(math.Abs(dv)), 2*h.StribeckVelocity)
	return h.FrictionCoefficient*normal*h.NormalizationCoefficient*sign(dv)*num/den + viscous
}

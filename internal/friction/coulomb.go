package friction

// Coulomb is the classic velocity-independent friction law.
type Coulomb struct {
	Coefficient float64
}

func NewCoulomb() Coulomb {
	return Coulomb{Coefficient: 0.3}
}

func (Coulomb) Kind() Kind { return KindCoulomb }

func (Coulomb) StateDim() int { return 0 }

func (Coulomb) Validate() error { return nil }

// Force reports the friction force transmitted through the contact,
// F = mu*N*sign(v): positive for positive sliding velocity. At v == 0 the
// full mu*N magnitude is reported.
func (c Coulomb) Force(normal, velocity float64) float64 {
	if velocity == 0 {
		return c.Coefficient * normal
	}
	return c.Coefficient * normal * sign(velocity)
}

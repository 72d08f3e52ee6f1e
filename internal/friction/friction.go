package friction

// Kind identifies a friction-law variant.
type Kind string

const (
	KindCoulomb       Kind = "coulomb"
	KindHyperbolic    Kind = "hyperbolic"
	KindLuGre         Kind = "lugre"
	KindElastoPlastic Kind = "elastoplastic"
	KindGMS           Kind = "gms"
)

// Kinds lists every variant in a stable order.
func Kinds() []Kind {
	return []Kind{KindCoulomb, KindHyperbolic, KindLuGre, KindElastoPlastic, KindGMS}
}

// Func is a continuous scalar signal of time, used to drive evaluation
// when only sampled data is available (see the signal package).
type Func func(t float64) float64

// Model is an immutable friction-law value object. Variants that can be
// evaluated without memory implement Instantaneous; variants with internal
// bristle state implement Stateful. A model is never mutated, only replaced.
type Model interface {
	Kind() Kind
	// StateDim is the number of internal bristle-state variables (0 for
	// memoryless variants).
	StateDim() int
	Validate() error
}

// Instantaneous is a memoryless friction law.
type Instantaneous interface {
	Model
	// Force returns the friction force transmitted through the contact for
	// a normal load and sliding velocity.
	Force(normal, velocity float64) float64
}

// Stateful is a friction law with internal bristle deformation state z.
// Both methods are pure functions of their arguments; z is owned by the
// caller for the duration of a single evaluation.
type Stateful interface {
	Model
	// StateDerivative returns dz/dt at time t given normal load, position,
	// velocity and the current state. len(z) must equal StateDim.
	StateDerivative(t, normal, position, velocity float64, z []float64) []float64
	// ForceFromState returns the friction force given the state and its
	// derivative as returned by StateDerivative.
	ForceFromState(t, normal, position, velocity float64, z, dz []float64) float64
}

// ForceAt evaluates a model at a single operating point. For memoryless
// variants z is ignored and the returned derivative is nil. For stateful
// variants z defaults to the all-zero state when nil; position is taken
// as zero.
func ForceAt(m Model, normal, velocity float64, z []float64) (force float64, dz []float64, err error) {
	if err := m.Validate(); err != nil {
		return 0, nil, err
	}
	switch mm := m.(type) {
	case Instantaneous:
		return mm.Force(normal, velocity), nil, nil
	case Stateful:
		if z == nil {
			z = make([]float64, m.StateDim())
		}
		if len(z) != m.StateDim() {
			return 0, nil, Configf("state has %d entries, model %s needs %d", len(z), m.Kind(), m.StateDim())
		}
		dz := mm.StateDerivative(0, normal, 0, velocity, z)
		return mm.ForceFromState(0, normal, 0, velocity, z, dz), dz, nil
	}
	return 0, nil, Configf("model %s supports no evaluation capability", m.Kind())
}

// Evaluate computes the force of a memoryless model at each time, driven by
// continuous normal-load and velocity signals. Points are independent; no
// state is shared across them.
func Evaluate(m Instantaneous, times []float64, normal, velocity Func) ([]float64, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	forces := make([]float64, len(times))
	for i, t := range times {
		forces[i] = m.Force(normal(t), velocity(t))
	}
	return forces, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

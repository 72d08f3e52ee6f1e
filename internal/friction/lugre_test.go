package friction

import (
	"errors"
	"math"
	"testing"
)

func TestLuGreRestCondition(t *testing.T) {
	m := NewLuGre()
	z := []float64{0}

	dz := m.StateDerivative(0, 100, 0, 0, z)
	if dz[0] != 0 {
		t.Errorf("expected dz/dt = 0 at rest, got %g", dz[0])
	}
	if f := m.ForceFromState(0, 100, 0, 0, z, dz); f != 0 {
		t.Errorf("expected F = 0 at rest, got %g", f)
	}
}

func TestLuGreSteadyState(t *testing.T) {
	// At constant velocity the bristle settles at z_ss = g(v)/sigma0 where
	// dz/dt vanishes.
	m := NewLuGre()
	v := 0.05
	g := m.stribeck(100, v)
	zss := g / m.BristleStiffness

	dz := m.StateDerivative(0, 100, 0, v, []float64{zss})
	if math.Abs(dz[0]) > 1e-12 {
		t.Errorf("expected dz/dt = 0 at steady state, got %g", dz[0])
	}
}

func TestLuGreStribeckBlend(t *testing.T) {
	m := NewLuGre()
	n := 100.0

	if got := m.stribeck(n, 0); math.Abs(got-m.StaticCoefficient*n) > 1e-12 {
		t.Errorf("expected static level at v = 0, got %g", got)
	}
	if got := m.stribeck(n, 100*m.StribeckVelocity); math.Abs(got-m.CoulombCoefficient*n) > 1e-9 {
		t.Errorf("expected coulomb level at high velocity, got %g", got)
	}
}

func TestLuGreValidate(t *testing.T) {
	m := NewLuGre()
	m.StribeckVelocity = 0
	err := m.Validate()
	if err == nil {
		t.Fatal("expected validation error for zero stribeck velocity")
	}
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParamError, got %T", err)
	}
	if !errors.Is(err, ErrZeroStribeckVelocity) {
		t.Error("expected wrapped ErrZeroStribeckVelocity")
	}
}

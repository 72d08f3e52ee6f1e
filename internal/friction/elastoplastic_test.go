package friction

import (
	"math"
	"testing"
)

func TestElastoPlasticAlphaContinuity(t *testing.T) {
	m := NewElastoPlastic()
	zba := m.BreakawayDisplacement
	zmax := m.MaxBristleDisplacement
	eps := (zmax - zba) * 1e-9

	if got := m.alpha(zba); got != 0 {
		t.Errorf("expected alpha = 0 at breakaway, got %g", got)
	}
	if got := m.alpha(zba + eps); got > 1e-6 {
		t.Errorf("alpha discontinuous above breakaway: %g", got)
	}
	if got := m.alpha(zmax); got != 1 {
		t.Errorf("expected alpha = 1 at max displacement, got %g", got)
	}
	if got := m.alpha(zmax - eps); got < 1-1e-6 {
		t.Errorf("alpha discontinuous below max displacement: %g", got)
	}
	mid := (zba + zmax) / 2
	if got := m.alpha(mid); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected alpha = 0.5 at ramp midpoint, got %g", got)
	}
}

func TestElastoPlasticAlphaSymmetric(t *testing.T) {
	m := NewElastoPlastic()
	z := (m.BreakawayDisplacement + m.MaxBristleDisplacement) / 2 * 1.1
	if m.alpha(z) != m.alpha(-z) {
		t.Error("alpha must depend on |z| only")
	}
}

func TestElastoPlasticRestCondition(t *testing.T) {
	m := NewElastoPlastic()
	z := []float64{0}

	dz := m.StateDerivative(0, 100, 0, 0, z)
	if dz[0] != 0 {
		t.Errorf("expected dz/dt = 0 at rest, got %g", dz[0])
	}
	if f := m.ForceFromState(0, 100, 0, 0, z, dz); f != 0 {
		t.Errorf("expected F = 0 at rest, got %g", f)
	}
}

func TestElastoPlasticElasticBelowBreakaway(t *testing.T) {
	// Inside the breakaway displacement the bristle is purely elastic:
	// dz/dt = v exactly.
	m := NewElastoPlastic()
	v := 0.01
	dz := m.StateDerivative(0, 100, 0, v, []float64{m.BreakawayDisplacement / 2})
	if dz[0] != v {
		t.Errorf("expected purely elastic dz/dt = v, got %g", dz[0])
	}
}

func TestElastoPlasticValidate(t *testing.T) {
	m := NewElastoPlastic()
	m.MaxBristleDisplacement = m.BreakawayDisplacement
	if err := m.Validate(); err == nil {
		t.Error("expected validation error for degenerate displacement range")
	}
}

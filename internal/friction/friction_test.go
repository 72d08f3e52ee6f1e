package friction

import (
	"math"
	"testing"
)

func TestForceAtInstantaneous(t *testing.T) {
	f, dz, err := ForceAt(Coulomb{Coefficient: 0.25}, 100, -0.5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f != -25.0 {
		t.Errorf("expected -25.0, got %g", f)
	}
	if dz != nil {
		t.Error("memoryless model must not report a state derivative")
	}
}

func TestForceAtStateful(t *testing.T) {
	m := NewLuGre()
	f, dz, err := ForceAt(m, 100, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f != 0 || dz[0] != 0 {
		t.Errorf("expected rest condition, got F = %g, dz = %g", f, dz[0])
	}

	if _, _, err := ForceAt(m, 100, 0.1, []float64{0, 0}); err == nil {
		t.Error("expected error for wrong state length")
	}
}

func TestForceAtRejectsInvalidModel(t *testing.T) {
	m := NewLuGre()
	m.StribeckVelocity = 0
	if _, _, err := ForceAt(m, 100, 0.1, nil); err == nil {
		t.Error("expected validation error")
	}
}

func TestEvaluatePointwiseIndependent(t *testing.T) {
	c := Coulomb{Coefficient: 0.3}
	times := []float64{0, 0.25, 0.5, 0.75, 1}
	normal := func(float64) float64 { return 50 }
	velocity := func(tt float64) float64 { return math.Sin(2 * math.Pi * tt) }

	forces, err := Evaluate(c, times, normal, velocity)
	if err != nil {
		t.Fatal(err)
	}
	if len(forces) != len(times) {
		t.Fatalf("expected %d forces, got %d", len(times), len(forces))
	}
	for i, tt := range times {
		want := c.Force(normal(tt), velocity(tt))
		if forces[i] != want {
			t.Errorf("t = %g: expected %g, got %g", tt, want, forces[i])
		}
	}
}

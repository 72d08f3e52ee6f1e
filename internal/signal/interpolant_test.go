package signal

import (
	"errors"
	"math"
	"testing"
)

func TestInterpolantExactAtSamples(t *testing.T) {
	times := []float64{0, 0.1, 0.25, 0.7, 1}
	values := []float64{1, -2, 4, 0.5, 3}
	in, err := NewInterpolant(times, values)
	if err != nil {
		t.Fatal(err)
	}
	for i, tt := range times {
		if got := in.At(tt); got != values[i] {
			t.Errorf("t = %g: expected exactly %g, got %g", tt, values[i], got)
		}
	}
}

func TestInterpolantMidpoints(t *testing.T) {
	in, err := NewInterpolant([]float64{0, 1, 2}, []float64{0, 10, 0})
	if err != nil {
		t.Fatal(err)
	}
	if got := in.At(0.5); math.Abs(got-5) > 1e-12 {
		t.Errorf("expected 5 at t = 0.5, got %g", got)
	}
	if got := in.At(1.75); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("expected 2.5 at t = 1.75, got %g", got)
	}
}

func TestInterpolantLinearExtrapolation(t *testing.T) {
	// Slope 2 on the first segment, slope -1 on the last.
	in, err := NewInterpolant([]float64{0, 1, 3}, []float64{0, 2, 0})
	if err != nil {
		t.Fatal(err)
	}
	if got := in.At(-2); math.Abs(got-(-4)) > 1e-12 {
		t.Errorf("expected -4 below the range, got %g", got)
	}
	if got := in.At(5); math.Abs(got-(-2)) > 1e-12 {
		t.Errorf("expected -2 above the range, got %g", got)
	}
}

func TestInterpolantRejectsBadInput(t *testing.T) {
	if _, err := NewInterpolant([]float64{0, 1}, []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := NewInterpolant([]float64{0}, []float64{1}); !errors.Is(err, ErrTooFewSamples) {
		t.Errorf("expected ErrTooFewSamples, got %v", err)
	}
	if _, err := NewInterpolant([]float64{0, 1, 1}, []float64{1, 2, 3}); !errors.Is(err, ErrUnordered) {
		t.Errorf("expected ErrUnordered, got %v", err)
	}
}

func TestInterpolantOwnsCopies(t *testing.T) {
	times := []float64{0, 1}
	values := []float64{0, 10}
	in, err := NewInterpolant(times, values)
	if err != nil {
		t.Fatal(err)
	}
	values[1] = -10
	if got := in.At(1); got != 10 {
		t.Errorf("interpolant must not alias caller slices, got %g", got)
	}
}

func TestConstant(t *testing.T) {
	c := Constant(7.5)
	if c(0) != 7.5 || c(1e9) != 7.5 {
		t.Error("constant signal must ignore time")
	}
}

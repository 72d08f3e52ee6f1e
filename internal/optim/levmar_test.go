package optim

import (
	"errors"
	"math"
	"testing"
)

// expDecay builds residuals for y = a*exp(b*t) against synthetic samples.
func expDecay(a, b float64) ResidualFunc {
	times := make([]float64, 20)
	measured := make([]float64, 20)
	for i := range times {
		times[i] = float64(i) * 0.1
		measured[i] = a * math.Exp(b*times[i])
	}
	return func(x []float64) ([]float64, error) {
		r := make([]float64, len(times))
		for i, t := range times {
			r[i] = x[0]*math.Exp(x[1]*t) - measured[i]
		}
		return r, nil
	}
}

func TestLeastSquaresRecoversExponential(t *testing.T) {
	residual := expDecay(2.0, -1.5)
	res, err := LeastSquares(residual, []float64{1.0, -1.0}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, status: %s", res.Status)
	}
	if math.Abs(res.X[0]-2.0) > 1e-6 || math.Abs(res.X[1]+1.5) > 1e-6 {
		t.Errorf("expected (2, -1.5), got (%g, %g)", res.X[0], res.X[1])
	}
	if res.Cost > 1e-12 {
		t.Errorf("expected near-zero cost, got %g", res.Cost)
	}
}

func TestLeastSquaresRespectsBounds(t *testing.T) {
	// True minimum at x = 5; the box keeps the solution at its upper edge.
	residual := func(x []float64) ([]float64, error) {
		return []float64{x[0] - 5, 0.1 * (x[0] - 5)}, nil
	}
	res, err := LeastSquares(residual, []float64{0}, Options{
		Lower: []float64{-1},
		Upper: []float64{2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.X[0] < -1 || res.X[0] > 2 {
		t.Fatalf("solution %g escaped the box", res.X[0])
	}
	if math.Abs(res.X[0]-2) > 1e-9 {
		t.Errorf("expected the active bound 2, got %g", res.X[0])
	}
}

func TestLeastSquaresClampsInitialPoint(t *testing.T) {
	residual := func(x []float64) ([]float64, error) {
		return []float64{x[0]}, nil
	}
	res, err := LeastSquares(residual, []float64{10}, Options{
		Lower: []float64{1},
		Upper: []float64{3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.X[0] < 1 || res.X[0] > 3 {
		t.Errorf("initial clamp failed, got %g", res.X[0])
	}
}

func TestLeastSquaresHistoryDecreases(t *testing.T) {
	res, err := LeastSquares(expDecay(2.0, -1.5), []float64{1.2, -1.2}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i] > res.History[i-1] {
			t.Fatalf("cost history not monotone at %d: %g -> %g", i, res.History[i-1], res.History[i])
		}
	}
}

func TestLeastSquaresUncertainty(t *testing.T) {
	res, err := LeastSquares(expDecay(2.0, -1.5), []float64{1.5, -1.2}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.StdErrors == nil || len(res.StdErrors) != 2 {
		t.Fatal("expected standard errors at the solution")
	}
	for i, se := range res.StdErrors {
		if se < 0 || math.IsNaN(se) {
			t.Errorf("std error %d invalid: %g", i, se)
		}
	}
	if res.Covariance == nil {
		t.Error("expected a covariance matrix")
	}
}

func TestLeastSquaresUncertaintyAtSolution(t *testing.T) {
	// One-parameter problem with a known standard error: J = exp(x),
	// s^2 = cost/(m-n), se = sqrt(s^2)/J. Capping at one iteration leaves
	// the reported point far from the start, so a Jacobian taken anywhere
	// but the solution gives a visibly wrong value.
	residual := func(x []float64) ([]float64, error) {
		return []float64{math.Exp(x[0]) - 1, 0.5}, nil
	}
	res, err := LeastSquares(residual, []float64{1}, Options{MaxIterations: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.StdErrors == nil {
		t.Fatal("expected standard errors")
	}
	j := math.Exp(res.X[0])
	r0 := math.Exp(res.X[0]) - 1
	s2 := r0*r0 + 0.25
	want := math.Sqrt(s2) / j
	if math.Abs(res.StdErrors[0]-want)/want > 1e-4 {
		t.Errorf("std error %g not evaluated at the solution, want %g", res.StdErrors[0], want)
	}
}

func TestLeastSquaresFrozenAxisStaysInBox(t *testing.T) {
	// lower == upper freezes the first parameter at 0; the residual rejects
	// any probe outside that box, so the Jacobian must never step off it.
	residual := func(x []float64) ([]float64, error) {
		if x[0] != 0 {
			return nil, errors.New("frozen parameter left its box")
		}
		return []float64{x[1] - 2, 0.1 * x[0]}, nil
	}
	res, err := LeastSquares(residual, []float64{0, 5}, Options{
		Lower: []float64{0, -10},
		Upper: []float64{0, 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence with a frozen axis, status: %s", res.Status)
	}
	if res.X[0] != 0 {
		t.Errorf("frozen parameter moved to %g", res.X[0])
	}
	if math.Abs(res.X[1]-2) > 1e-6 {
		t.Errorf("free parameter: expected 2, got %g", res.X[1])
	}
}

func TestLeastSquaresBadBounds(t *testing.T) {
	residual := func(x []float64) ([]float64, error) { return []float64{x[0]}, nil }
	if _, err := LeastSquares(residual, []float64{0}, Options{Lower: []float64{1, 2}}); err == nil {
		t.Error("expected error for mismatched bound length")
	}
	if _, err := LeastSquares(residual, []float64{0}, Options{
		Lower: []float64{2},
		Upper: []float64{1},
	}); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestLeastSquaresIterationCallback(t *testing.T) {
	var calls int
	_, err := LeastSquares(expDecay(2.0, -1.5), []float64{1.0, -1.0}, Options{
		OnIteration: func(iter int, cost float64, x []float64) { calls++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls == 0 {
		t.Error("expected iteration callbacks")
	}
}

func TestLeastSquaresEmptyStart(t *testing.T) {
	residual := func(x []float64) ([]float64, error) { return nil, nil }
	if _, err := LeastSquares(residual, nil, Options{}); err == nil {
		t.Error("expected error for empty start vector")
	}
}

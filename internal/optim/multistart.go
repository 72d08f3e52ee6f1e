package optim

import (
	"errors"
	"math"
	"math/rand"
	"sync"
)

// UniformStarts draws n starting vectors uniformly inside [lower, upper].
// The seed makes the draw reproducible across runs.
func UniformStarts(n int, lower, upper []float64, seed int64) ([][]float64, error) {
	dim := len(lower)
	if dim == 0 || len(upper) != dim {
		return nil, ErrBadBounds
	}
	for i := 0; i < dim; i++ {
		if lower[i] > upper[i] {
			return nil, ErrBadBounds
		}
		if math.IsInf(lower[i], 0) || math.IsInf(upper[i], 0) {
			return nil, ErrUnboundedGrid
		}
	}
	rng := rand.New(rand.NewSource(seed))
	starts := make([][]float64, n)
	for k := range starts {
		x := make([]float64, dim)
		for i := range x {
			x[i] = lower[i] + rng.Float64()*(upper[i]-lower[i])
		}
		starts[k] = x
	}
	return starts, nil
}

// MultiStart runs LeastSquares from every start concurrently and returns
// the result with the lowest cost. Starts that fail outright are skipped;
// an error is returned only when no start produced a result. OnIteration
// is forwarded to the first start only, so callers see one coherent
// progress stream.
func MultiStart(residual ResidualFunc, starts [][]float64, opts Options) (*Result, error) {
	if len(starts) == 0 {
		return nil, ErrNoParams
	}

	results := make([]*Result, len(starts))
	errs := make([]error, len(starts))

	var wg sync.WaitGroup
	for i := range starts {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			o := opts
			if idx != 0 {
				o.OnIteration = nil
			}
			results[idx], errs[idx] = LeastSquares(residual, starts[idx], o)
		}(i)
	}
	wg.Wait()

	var best *Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Cost < best.Cost {
			best = r
		}
	}
	if best == nil {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return nil, errors.New("optim: no start produced a result")
	}
	return best, nil
}

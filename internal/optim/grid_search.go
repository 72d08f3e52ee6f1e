package optim

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrUnboundedGrid = errors.New("optim: grid search needs finite bounds on every axis")

// GridSearch evaluates the sum-of-squares cost on a regular grid inside
// [lower, upper] and returns the best grid point and its cost. Useful to
// seed LeastSquares when the cost surface has several basins; points per
// axis below 2 degenerates to the box midpoint.
func GridSearch(residual ResidualFunc, lower, upper []float64, pointsPerAxis int) ([]float64, float64, error) {
	n := len(lower)
	if n == 0 || len(upper) != n {
		return nil, 0, ErrBadBounds
	}
	for i := 0; i < n; i++ {
		if lower[i] > upper[i] {
			return nil, 0, ErrBadBounds
		}
		if math.IsInf(lower[i], 0) || math.IsInf(upper[i], 0) {
			return nil, 0, ErrUnboundedGrid
		}
	}
	if pointsPerAxis < 2 {
		mid := make([]float64, n)
		for i := range mid {
			mid[i] = (lower[i] + upper[i]) / 2
		}
		r, err := residual(mid)
		if err != nil {
			return nil, 0, err
		}
		return mid, floats.Dot(r, r), nil
	}

	best := math.Inf(1)
	var bestX []float64
	current := make([]float64, n)
	searchAxis(residual, lower, upper, pointsPerAxis, 0, current, &best, &bestX)
	if bestX == nil {
		return nil, 0, errors.New("optim: every grid point failed to evaluate")
	}
	return bestX, best, nil
}

func searchAxis(residual ResidualFunc, lower, upper []float64, points, depth int, current []float64, best *float64, bestX *[]float64) {
	if depth == len(current) {
		r, err := residual(current)
		if err != nil {
			return
		}
		cost := floats.Dot(r, r)
		if cost < *best {
			*best = cost
			*bestX = append([]float64(nil), current...)
		}
		return
	}
	for i := 0; i < points; i++ {
		current[depth] = lower[depth] + (upper[depth]-lower[depth])*float64(i)/float64(points-1)
		searchAxis(residual, lower, upper, points, depth+1, current, best, bestX)
	}
}

// Package signal reconstructs continuous signals from discretely sampled
// time series.
package signal

import (
	"errors"
	"sort"
)

var (
	ErrLengthMismatch = errors.New("signal: times and values differ in length")
	ErrTooFewSamples  = errors.New("signal: need at least 2 samples")
	ErrUnordered      = errors.New("signal: sample times must be strictly increasing")
)

// Interpolant is a piecewise-linear reconstruction of a sampled signal. It
// reproduces sample values exactly at sample times and extrapolates
// linearly outside the sampled range using the slope of the nearest
// segment. The value owns copies of the sample slices and is safe to share.
type Interpolant struct {
	times  []float64
	values []float64
}

func NewInterpolant(times, values []float64) (*Interpolant, error) {
	if len(times) != len(values) {
		return nil, ErrLengthMismatch
	}
	if len(times) < 2 {
		return nil, ErrTooFewSamples
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, ErrUnordered
		}
	}
	in := &Interpolant{
		times:  make([]float64, len(times)),
		values: make([]float64, len(values)),
	}
	copy(in.times, times)
	copy(in.values, values)
	return in, nil
}

// At evaluates the signal at time t.
func (in *Interpolant) At(t float64) float64 {
	n := len(in.times)
	// Index of the segment start: clamp so the first and last segments
	// also serve extrapolation.
	i := sort.SearchFloat64s(in.times, t)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	t0, t1 := in.times[i], in.times[i+1]
	y0, y1 := in.values[i], in.values[i+1]
	// Exact at sample times, independent of rounding in the blend below.
	if t == t0 {
		return y0
	}
	if t == t1 {
		return y1
	}
	return y0 + (y1-y0)*(t-t0)/(t1-t0)
}

// Func adapts the interpolant to a plain evaluation function.
func (in *Interpolant) Func() func(float64) float64 {
	return in.At
}

// Constant is a signal fixed at c for all times.
func Constant(c float64) func(float64) float64 {
	return func(float64) float64 { return c }
}

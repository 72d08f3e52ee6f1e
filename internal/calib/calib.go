// Package calib fits friction-model parameters against measured force
// time series by bounded nonlinear least squares.
package calib

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tribofit/internal/friction"
	"github.com/san-kum/tribofit/internal/ivp"
	"github.com/san-kum/tribofit/internal/optim"
	"github.com/san-kum/tribofit/internal/params"
	"github.com/san-kum/tribofit/internal/signal"
)

// Data holds the measured driving signals, sampled on the same grid as
// the measured force. Position may be nil for variants that ignore it.
type Data struct {
	Normal   []float64
	Velocity []float64
	Position []float64
}

// Options configures a fit. Zero values mean defaults.
type Options struct {
	Lower, Upper  []float64 // per-parameter bounds in codec order
	Z0            []float64 // initial bristle state, default zeros
	RelTol        float64   // ivp relative tolerance, default 1e-8
	AbsTol        float64   // ivp absolute tolerance, default 1e-6
	MaxStep       float64   // ivp max internal step, default 1e-3
	Method        string    // ivp method, default trbdf2
	MaxIterations int       // optimizer iteration limit, default 200
	// GridPoints > 1 seeds the optimizer from the best point of a regular
	// grid over the bounds instead of m0's parameters. Needs finite bounds.
	GridPoints int
	// Starts > 1 adds that many random restarts drawn uniformly inside the
	// bounds, keeping the lowest-cost fit. Needs finite bounds.
	Starts int
	Seed   int64
	// OnIteration observes every accepted optimizer step.
	OnIteration func(iter int, cost float64, x []float64)
}

// Diagnostics reports how the fit went. Warnings carries non-fatal
// numerical trouble (non-convergence, singular Jacobian, solver step
// underflow); the fitted model is still the best point found.
type Diagnostics struct {
	Cost        float64
	RMS         float64
	History     []float64
	StdErrors   []float64
	Covariance  *mat.SymDense
	Converged   bool
	Status      string
	Iterations  int
	Evaluations int
	Warnings    []string
}

// Result pairs the fitted model with its diagnostics.
type Result struct {
	Model       friction.Model
	Diagnostics Diagnostics
}

// Fit calibrates a model of m0's variant against the measured force,
// starting from m0's parameters. Sample arrays must all share the length
// of times; stateful variants additionally need at least 2 time points.
func Fit(m0 friction.Model, times, measured []float64, d Data, opts Options) (*Result, error) {
	if err := m0.Validate(); err != nil {
		return nil, err
	}
	if err := validate(m0, times, measured, d); err != nil {
		return nil, err
	}

	normal, velocity, position, err := buildSignals(times, d)
	if err != nil {
		return nil, err
	}

	predict := predictor(m0.Kind(), times, normal, position, velocity, opts)

	var (
		warnMu   sync.Mutex
		warnings []string
	)
	residual := func(vec []float64) ([]float64, error) {
		m, err := params.Decode(m0.Kind(), vec)
		if err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		predicted, warns, err := predict(m)
		if err != nil {
			return nil, err
		}
		warnMu.Lock()
		warnings = append(warnings, warns...)
		warnMu.Unlock()
		r := make([]float64, len(times))
		for i := range r {
			r[i] = predicted[i] - measured[i]
		}
		return r, nil
	}

	x0 := params.Encode(m0)
	optOpts := optim.Options{
		Lower:         opts.Lower,
		Upper:         opts.Upper,
		MaxIterations: opts.MaxIterations,
		OnIteration:   opts.OnIteration,
	}

	if opts.GridPoints > 1 {
		seed, _, err := optim.GridSearch(residual, opts.Lower, opts.Upper, opts.GridPoints)
		if err != nil {
			return nil, friction.Configf("grid seeding: %v", err)
		}
		x0 = seed
	}

	var optRes *optim.Result
	if opts.Starts > 1 {
		starts, err := optim.UniformStarts(opts.Starts-1, opts.Lower, opts.Upper, opts.Seed)
		if err != nil {
			return nil, friction.Configf("random restarts: %v", err)
		}
		starts = append([][]float64{x0}, starts...)
		optRes, err = optim.MultiStart(residual, starts, optOpts)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		optRes, err = optim.LeastSquares(residual, x0, optOpts)
		if err != nil {
			return nil, err
		}
	}

	fitted, err := params.Decode(m0.Kind(), optRes.X)
	if err != nil {
		return nil, err
	}

	diag := Diagnostics{
		Cost:        optRes.Cost,
		History:     optRes.History,
		StdErrors:   optRes.StdErrors,
		Covariance:  optRes.Covariance,
		Converged:   optRes.Converged,
		Status:      optRes.Status,
		Iterations:  optRes.Iterations,
		Evaluations: optRes.Evaluations,
		Warnings:    dedup(warnings),
	}
	if len(times) > 0 {
		diag.RMS = rms(optRes.Cost, len(times))
	}
	return &Result{Model: fitted, Diagnostics: diag}, nil
}

// predictor builds the "model(parameters, times) -> forces" closure the
// optimizer drives: instantaneous evaluation for memoryless variants, a
// full IVP solve per trial for stateful ones.
func predictor(kind friction.Kind, times []float64, normal, position, velocity friction.Func, opts Options) func(friction.Model) ([]float64, []string, error) {
	ivpOpts := ivp.Options{
		RelTol:  opts.RelTol,
		AbsTol:  opts.AbsTol,
		MaxStep: opts.MaxStep,
		Z0:      opts.Z0,
		Method:  opts.Method,
	}
	return func(m friction.Model) ([]float64, []string, error) {
		switch mm := m.(type) {
		case friction.Instantaneous:
			forces, err := friction.Evaluate(mm, times, normal, velocity)
			return forces, nil, err
		case friction.Stateful:
			span := times
			if len(times) == 2 {
				// A 2-sample measurement integrates as a range; the
				// endpoints are the first and last reported points.
				span = []float64{times[0], times[1]}
			}
			sol, err := ivp.Integrate(mm, span, normal, position, velocity, ivpOpts)
			if err != nil {
				return nil, nil, err
			}
			forces := sol.Forces
			if len(times) == 2 {
				forces = []float64{sol.Forces[0], sol.Forces[len(sol.Forces)-1]}
			}
			if len(forces) != len(times) {
				return nil, sol.Warnings, fmt.Errorf("calib: solver reported %d of %d requested times", len(forces), len(times))
			}
			return forces, sol.Warnings, nil
		}
		return nil, nil, friction.Configf("model %s supports no evaluation capability", m.Kind())
	}
}

func validate(m friction.Model, times, measured []float64, d Data) error {
	if len(measured) != len(times) {
		return friction.Configf("measured force has %d samples, times has %d", len(measured), len(times))
	}
	if len(d.Normal) != len(times) {
		return friction.Configf("normal load has %d samples, times has %d", len(d.Normal), len(times))
	}
	if len(d.Velocity) != len(times) {
		return friction.Configf("velocity has %d samples, times has %d", len(d.Velocity), len(times))
	}
	if d.Position != nil && len(d.Position) != len(times) {
		return friction.Configf("position has %d samples, times has %d", len(d.Position), len(times))
	}
	if m.StateDim() > 0 && len(times) < 2 {
		return friction.Configf("stateful model %s needs at least 2 time points, got %d", m.Kind(), len(times))
	}
	if len(times) == 0 {
		return friction.Configf("no time points supplied")
	}
	return nil
}

func buildSignals(times []float64, d Data) (normal, velocity, position friction.Func, err error) {
	if len(times) == 1 {
		// Memoryless single-point fits never interpolate.
		return signal.Constant(d.Normal[0]), signal.Constant(d.Velocity[0]), signal.Constant(0), nil
	}
	ni, err := signal.NewInterpolant(times, d.Normal)
	if err != nil {
		return nil, nil, nil, friction.Configf("normal load samples: %v", err)
	}
	vi, err := signal.NewInterpolant(times, d.Velocity)
	if err != nil {
		return nil, nil, nil, friction.Configf("velocity samples: %v", err)
	}
	position = signal.Constant(0)
	if d.Position != nil {
		xi, err := signal.NewInterpolant(times, d.Position)
		if err != nil {
			return nil, nil, nil, friction.Configf("position samples: %v", err)
		}
		position = xi.At
	}
	return ni.At, vi.At, position, nil
}

func rms(cost float64, n int) float64 {
	return math.Sqrt(cost / float64(n))
}

func dedup(warnings []string) []string {
	seen := make(map[string]bool, len(warnings))
	var out []string
	for _, w := range warnings {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

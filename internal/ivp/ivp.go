// Package ivp integrates the internal bristle state of stateful friction
// models forward in time, driven by continuous normal-load, position and
// velocity signals.
package ivp

import (
	"fmt"
	"math"

	"github.com/san-kum/tribofit/internal/friction"
)

// Integration methods. Bristle models are numerically stiff for large
// stiffness values, so the implicit TR-BDF2 scheme is the default; the
// explicit Dormand-Prince pair is available for non-stiff work.
const (
	MethodTRBDF2 = "trbdf2"
	MethodRK45   = "rk45"
)

const (
	DefaultRelTol   = 1e-8
	DefaultAbsTol   = 1e-6
	DefaultMaxStep  = 1e-3
	DefaultMaxSteps = 2_000_000
)

// Options configures a solve. Zero values mean defaults.
type Options struct {
	RelTol  float64 // relative tolerance, default 1e-8
	AbsTol  float64 // absolute tolerance, default 1e-6
	MaxStep float64 // largest internal step, default 1e-3
	Z0      []float64
	Method  string // MethodTRBDF2 (default) or MethodRK45
	// MaxSteps bounds the internal step count; exceeding it is reported as
	// a warning on the solution, not an error.
	MaxSteps int
}

func (o Options) withDefaults() Options {
	if o.RelTol <= 0 {
		o.RelTol = DefaultRelTol
	}
	if o.AbsTol <= 0 {
		o.AbsTol = DefaultAbsTol
	}
	if o.MaxStep <= 0 {
		o.MaxStep = DefaultMaxStep
	}
	if o.Method == "" {
		o.Method = MethodTRBDF2
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	return o
}

// Solution is the reported trajectory. Forces and StateDerivs are
// recomputed from States at every reported time after the solve, so they
// are always consistent with the returned state. A non-empty Warnings
// slice flags the solution as a best-effort result.
type Solution struct {
	Times       []float64
	Forces      []float64
	States      [][]float64
	StateDerivs [][]float64
	Warnings    []string
}

// Reliable reports whether the solve finished without numerical trouble.
func (s *Solution) Reliable() bool { return len(s.Warnings) == 0 }

type rhsFunc func(t float64, z []float64) []float64

// Integrate solves the bristle-state ODE of m over span. A 2-element span
// is a [start, end] range on which the solver reports its own accepted
// steps; a span of 3 or more entries is an explicit output grid and must
// be strictly monotone (increasing or decreasing). Any other span is a
// configuration error.
func Integrate(m friction.Stateful, span []float64, normal, position, velocity friction.Func, opts Options) (*Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	grid, isRange, err := checkSpan(span)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	n := m.StateDim()
	z0 := make([]float64, n)
	if opts.Z0 != nil {
		if len(opts.Z0) != n {
			return nil, friction.Configf("initial state has %d entries, model %s needs %d", len(opts.Z0), m.Kind(), n)
		}
		copy(z0, opts.Z0)
	}

	f := func(t float64, z []float64) []float64 {
		return m.StateDerivative(t, normal(t), position(t), velocity(t), z)
	}

	sol := &Solution{}
	if n == 0 {
		// Degenerate stateful model (e.g. GMS without elements): nothing to
		// integrate, evaluate directly on the requested times.
		sol.Times = append(sol.Times, grid...)
		for range grid {
			sol.States = append(sol.States, []float64{})
		}
	} else {
		var st stepper
		switch opts.Method {
		case MethodTRBDF2:
			st = &trbdf2{atol: opts.AbsTol, rtol: opts.RelTol}
		case MethodRK45:
			st = &rk45{atol: opts.AbsTol, rtol: opts.RelTol}
		default:
			return nil, friction.Configf("unknown integration method %q", opts.Method)
		}
		d := &driver{st: st, f: f, opts: opts}

		sol.Times = append(sol.Times, grid[0])
		sol.States = append(sol.States, clone(z0))
		z := z0
		if isRange {
			d.advance(grid[0], z, grid[1], func(t float64, zt []float64) {
				sol.Times = append(sol.Times, t)
				sol.States = append(sol.States, clone(zt))
			})
		} else {
			for i := 1; i < len(grid); i++ {
				z = d.advance(grid[i-1], z, grid[i], nil)
				if d.aborted {
					break
				}
				sol.Times = append(sol.Times, grid[i])
				sol.States = append(sol.States, clone(z))
			}
		}
		sol.Warnings = d.warnings
	}

	for i, t := range sol.Times {
		nt, xt, vt := normal(t), position(t), velocity(t)
		dz := m.StateDerivative(t, nt, xt, vt, sol.States[i])
		sol.StateDerivs = append(sol.StateDerivs, dz)
		sol.Forces = append(sol.Forces, m.ForceFromState(t, nt, xt, vt, sol.States[i], dz))
	}
	return sol, nil
}

// checkSpan validates the time specification and returns the output grid
// plus whether it is a [start, end] range.
func checkSpan(span []float64) ([]float64, bool, error) {
	switch {
	case len(span) == 2:
		if span[0] == span[1] {
			return nil, false, friction.Configf("time range [%g, %g] is empty", span[0], span[1])
		}
		return span, true, nil
	case len(span) >= 3:
		inc := span[1] > span[0]
		for i := 1; i < len(span); i++ {
			if inc && span[i] <= span[i-1] || !inc && span[i] >= span[i-1] {
				return nil, false, friction.Configf("output times must be strictly monotone at index %d", i)
			}
		}
		return span, false, nil
	}
	return nil, false, friction.Configf("time spec needs 2 (range) or >=3 (grid) entries, got %d", len(span))
}

// stepper attempts a single step of size h. The returned error norm is
// scaled so values <= 1 are acceptable.
type stepper interface {
	step(f rhsFunc, t float64, z []float64, h float64) (znew []float64, errNorm float64, err error)
	// exponent is 1/(p+1) for the method order p, used for step control.
	exponent() float64
}

// driver runs the shared adaptive step-size loop.
type driver struct {
	st       stepper
	f        rhsFunc
	opts     Options
	steps    int
	aborted  bool
	warnings []string
}

const (
	stepSafety   = 0.9
	minStepScale = 0.2
	maxStepScale = 5.0
)

// advance integrates from t to target, calling record at every accepted
// step. On numerical failure it records a warning, sets aborted and
// returns the state reached so far.
func (d *driver) advance(t float64, z []float64, target float64, record func(float64, []float64)) []float64 {
	if d.aborted {
		return z
	}
	dir := 1.0
	if target < t {
		dir = -1
	}
	span := math.Abs(target - t)
	hmin := math.Max(span, math.Abs(t)) * 1e-14
	h := dir * math.Min(d.opts.MaxStep, span)

	for dir*(target-t) > hmin {
		if math.Abs(target-t) < math.Abs(h) {
			h = target - t
		}
		znew, errNorm, err := d.st.step(d.f, t, z, h)
		d.steps++
		if d.steps > d.opts.MaxSteps {
			d.fail(fmt.Sprintf("step limit %d reached at t=%g", d.opts.MaxSteps, t))
			return z
		}
		if err != nil || errNorm > 1 || !finite(znew) {
			scale := minStepScale
			if err == nil && errNorm > 1 {
				scale = math.Max(minStepScale, stepSafety*math.Pow(errNorm, -d.st.exponent()))
			}
			h *= scale
			if math.Abs(h) < hmin {
				d.fail(fmt.Sprintf("step size underflow at t=%g", t))
				return z
			}
			continue
		}
		t += h
		z = znew
		if record != nil {
			record(t, z)
		}
		if errNorm > 0 {
			h *= math.Min(maxStepScale, stepSafety*math.Pow(errNorm, -d.st.exponent()))
		} else {
			h *= maxStepScale
		}
		if math.Abs(h) > d.opts.MaxStep {
			h = dir * d.opts.MaxStep
		}
	}
	return z
}

func (d *driver) fail(msg string) {
	d.aborted = true
	d.warnings = append(d.warnings, msg)
}

func clone(z []float64) []float64 {
	c := make([]float64, len(z))
	copy(c, z)
	return c
}

func finite(z []float64) bool {
	for _, v := range z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

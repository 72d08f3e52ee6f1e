// Package optim provides a box-constrained Levenberg-Marquardt solver for
// nonlinear least-squares problems.
package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrBadBounds = errors.New("optim: bounds do not match parameter count or lower > upper")
	ErrNoParams  = errors.New("optim: empty initial parameter vector")
)

// ResidualFunc maps a parameter vector to a residual vector. The residual
// length must be the same for every call. An error from a trial point is
// treated as an infeasible trial, not a fatal failure.
type ResidualFunc func(x []float64) ([]float64, error)

// Options configures the solver. Zero values mean defaults.
type Options struct {
	Lower, Upper  []float64 // per-parameter box, default unbounded
	MaxIterations int       // default 200
	GradTol       float64   // default 1e-10
	StepTol       float64   // default 1e-12
	CostTol       float64   // relative cost-reduction tolerance, default 1e-12
	InitialLambda float64   // default 1e-3
	// OnIteration is called after every accepted step.
	OnIteration func(iter int, cost float64, x []float64)
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 200
	}
	if o.GradTol <= 0 {
		o.GradTol = 1e-10
	}
	if o.StepTol <= 0 {
		o.StepTol = 1e-12
	}
	if o.CostTol <= 0 {
		o.CostTol = 1e-12
	}
	if o.InitialLambda <= 0 {
		o.InitialLambda = 1e-3
	}
	return o
}

// Result reports the best point found. Converged is false when the
// iteration limit was hit or the damping overflowed; the point is still
// the best one seen. StdErrors and Covariance are nil when the Jacobian is
// singular at the solution or the problem has no residual surplus.
type Result struct {
	X           []float64
	Cost        float64 // sum of squared residuals
	History     []float64
	Covariance  *mat.SymDense
	StdErrors   []float64
	Converged   bool
	Status      string
	Iterations  int
	Evaluations int
}

// LeastSquares minimizes the sum of squared residuals starting from x0,
// keeping every parameter inside [Lower_i, Upper_i].
func LeastSquares(residual ResidualFunc, x0 []float64, opts Options) (*Result, error) {
	n := len(x0)
	if n == 0 {
		return nil, ErrNoParams
	}
	opts = opts.withDefaults()
	lower, upper, err := checkBounds(n, opts.Lower, opts.Upper)
	if err != nil {
		return nil, err
	}

	x := make([]float64, n)
	copy(x, x0)
	clampTo(x, lower, upper)

	res := &Result{}
	r, err := residual(x)
	res.Evaluations++
	if err != nil {
		return nil, fmt.Errorf("optim: initial residual evaluation: %w", err)
	}
	m := len(r)
	cost := floats.Dot(r, r)
	res.History = append(res.History, cost)

	lambda := opts.InitialLambda
	jac := mat.NewDense(m, n, nil)
	grad := make([]float64, n)
	step := make([]float64, n)
	trial := make([]float64, n)

	status := "iteration limit reached"
	converged := false

	for iter := 0; iter < opts.MaxIterations; iter++ {
		res.Iterations = iter + 1
		if err := fillJacobian(residual, x, r, lower, upper, jac, &res.Evaluations); err != nil {
			status = "jacobian evaluation failed: " + err.Error()
			break
		}

		// grad = J^T r, projected at active bounds.
		gradMax := 0.0
		for j := 0; j < n; j++ {
			g := 0.0
			for i := 0; i < m; i++ {
				g += jac.At(i, j) * r[i]
			}
			if x[j] <= lower[j] && g > 0 || x[j] >= upper[j] && g < 0 {
				g = 0
			}
			grad[j] = g
			gradMax = math.Max(gradMax, math.Abs(g))
		}
		if gradMax < opts.GradTol {
			status = "gradient below tolerance"
			converged = true
			break
		}

		accepted := false
		for !accepted {
			if !solveDamped(jac, grad, lambda, step) {
				lambda *= 10
				if lambda > 1e12 {
					break
				}
				continue
			}
			for j := 0; j < n; j++ {
				trial[j] = x[j] + step[j]
			}
			clampTo(trial, lower, upper)

			rt, err := residual(trial)
			res.Evaluations++
			if err == nil && len(rt) == m {
				trialCost := floats.Dot(rt, rt)
				if trialCost < cost {
					stepNorm := 0.0
					for j := 0; j < n; j++ {
						stepNorm += (trial[j] - x[j]) * (trial[j] - x[j])
					}
					reduction := (cost - trialCost) / math.Max(cost, 1e-300)
					copy(x, trial)
					copy(r, rt)
					cost = trialCost
					lambda = math.Max(lambda*0.3, 1e-14)
					accepted = true
					res.History = append(res.History, cost)
					if opts.OnIteration != nil {
						opts.OnIteration(iter+1, cost, x)
					}
					if math.Sqrt(stepNorm) < opts.StepTol*(floats.Norm(x, 2)+opts.StepTol) {
						status = "step below tolerance"
						converged = true
					}
					if reduction < opts.CostTol {
						status = "cost reduction below tolerance"
						converged = true
					}
					break
				}
			}
			lambda *= 2
			if lambda > 1e12 {
				break
			}
		}
		if !accepted {
			status = "damping overflow, no further progress"
			break
		}
		if converged {
			break
		}
	}

	res.X = x
	res.Cost = cost
	res.Converged = converged
	res.Status = status
	// The loop's Jacobian belongs to the iterate before the last accepted
	// step; uncertainty needs it at the solution itself.
	if err := fillJacobian(residual, x, r, lower, upper, jac, &res.Evaluations); err != nil {
		res.Status += "; jacobian evaluation failed at solution"
		return res, nil
	}
	fillUncertainty(res, jac, m, n)
	return res, nil
}

// solveDamped solves (J^T J + lambda*diag(J^T J)) step = -grad. Returns
// false when the damped normal matrix is not positive definite.
func solveDamped(jac *mat.Dense, grad []float64, lambda float64, step []float64) bool {
	_, n := jac.Dims()
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 0.0
			rows, _ := jac.Dims()
			for k := 0; k < rows; k++ {
				v += jac.At(k, i) * jac.At(k, j)
			}
			a.SetSym(i, j, v)
		}
	}
	for i := 0; i < n; i++ {
		d := a.At(i, i)
		if d == 0 {
			d = 1e-12
		}
		a.SetSym(i, i, d*(1+lambda))
	}

	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return false
	}
	b := mat.NewVecDense(n, nil)
	for i := range grad {
		b.SetVec(i, -grad[i])
	}
	var s mat.VecDense
	if err := chol.SolveVecTo(&s, b); err != nil {
		return false
	}
	for i := range step {
		step[i] = s.AtVec(i)
	}
	return true
}

// fillJacobian computes forward-difference columns, stepping backward when
// a forward step would leave the box and shrinking the step for narrow
// boxes. An axis frozen by lower == upper gets a zero column: no probe
// point is admissible and the parameter cannot move.
func fillJacobian(residual ResidualFunc, x, r, lower, upper []float64, jac *mat.Dense, evals *int) error {
	m, n := jac.Dims()
	xp := make([]float64, n)
	for j := 0; j < n; j++ {
		copy(xp, x)
		h := 1e-7 * math.Max(math.Abs(x[j]), 1)
		if x[j]+h > upper[j] {
			h = -h
		}
		if x[j]+h < lower[j] {
			if upper[j]-x[j] >= x[j]-lower[j] {
				h = upper[j] - x[j]
			} else {
				h = lower[j] - x[j]
			}
		}
		if h == 0 {
			for i := 0; i < m; i++ {
				jac.Set(i, j, 0)
			}
			continue
		}
		xp[j] = x[j] + h
		rp, err := residual(xp)
		*evals++
		if err != nil {
			return err
		}
		if len(rp) != m {
			return fmt.Errorf("residual length changed from %d to %d", m, len(rp))
		}
		for i := 0; i < m; i++ {
			jac.Set(i, j, (rp[i]-r[i])/h)
		}
	}
	return nil
}

// fillUncertainty derives the parameter covariance (J^T J)^-1 * s^2 and
// standard errors at the solution. Singular Jacobians leave both nil and
// annotate the status.
func fillUncertainty(res *Result, jac *mat.Dense, m, n int) {
	if m <= n {
		return
	}
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 0.0
			for k := 0; k < m; k++ {
				v += jac.At(k, i) * jac.At(k, j)
			}
			a.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(a) {
		res.Status += "; jacobian singular at solution"
		return
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		res.Status += "; jacobian singular at solution"
		return
	}
	s2 := res.Cost / float64(m-n)
	inv.ScaleSym(s2, &inv)
	res.Covariance = &inv
	res.StdErrors = make([]float64, n)
	for i := 0; i < n; i++ {
		res.StdErrors[i] = math.Sqrt(math.Max(inv.At(i, i), 0))
	}
}

func checkBounds(n int, lower, upper []float64) ([]float64, []float64, error) {
	lo := make([]float64, n)
	up := make([]float64, n)
	for i := range lo {
		lo[i] = math.Inf(-1)
		up[i] = math.Inf(1)
	}
	if lower != nil {
		if len(lower) != n {
			return nil, nil, ErrBadBounds
		}
		copy(lo, lower)
	}
	if upper != nil {
		if len(upper) != n {
			return nil, nil, ErrBadBounds
		}
		copy(up, upper)
	}
	for i := range lo {
		if lo[i] > up[i] {
			return nil, nil, ErrBadBounds
		}
	}
	return lo, up, nil
}

func clampTo(x, lower, upper []float64) {
	for i := range x {
		if x[i] < lower[i] {
			x[i] = lower[i]
		}
		if x[i] > upper[i] {
			x[i] = upper[i]
		}
	}
}

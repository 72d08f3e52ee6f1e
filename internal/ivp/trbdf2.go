package ivp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errNewtonStalled = errors.New("ivp: newton iteration stalled")

// trbdf2 is the one-step implicit TR-BDF2 scheme: a trapezoidal stage to
// t+gamma*h followed by a BDF2 stage to t+h, gamma = 2-sqrt(2). The
// composite is second order and L-stable, which keeps large
// bristle-stiffness systems from forcing tiny explicit steps. Error
// control is by step doubling.
type trbdf2 struct {
	atol, rtol float64
}

const trGamma = 2 - math.Sqrt2

func (s *trbdf2) exponent() float64 { return 1.0 / 3.0 }

func (s *trbdf2) step(f rhsFunc, t float64, z []float64, h float64) ([]float64, float64, error) {
	full, err := s.single(f, t, z, h)
	if err != nil {
		return nil, 0, err
	}
	half, err := s.single(f, t, z, h/2)
	if err != nil {
		return nil, 0, err
	}
	half, err = s.single(f, t+h/2, half, h/2)
	if err != nil {
		return nil, 0, err
	}

	// Second-order method: the doubled solution is wrong by ~3x the local
	// error of the two half steps.
	errNorm := 0.0
	for i := range z {
		scale := s.atol + s.rtol*math.Max(math.Abs(z[i]), math.Abs(half[i]))
		errNorm = math.Max(errNorm, math.Abs(full[i]-half[i])/(3*scale))
	}
	return half, errNorm, nil
}

// single performs one TR-BDF2 step of size h.
func (s *trbdf2) single(f rhsFunc, t float64, z []float64, h float64) ([]float64, error) {
	g := trGamma
	fz := f(t, z)

	// Trapezoidal stage: zg = z + (g*h/2)*(f(t,z) + f(t+g*h, zg)).
	r := make([]float64, len(z))
	for i := range z {
		r[i] = z[i] + g*h/2*fz[i]
	}
	zg, err := s.solveImplicit(f, t+g*h, g*h/2, r, z)
	if err != nil {
		return nil, err
	}

	// BDF2 stage: z1 = d1*zg - d2*z + w*h*f(t+h, z1).
	d1 := 1 / (g * (2 - g))
	d2 := (1 - g) * (1 - g) / (g * (2 - g))
	w := (1 - g) / (2 - g)
	for i := range z {
		r[i] = d1*zg[i] - d2*z[i]
	}
	return s.solveImplicit(f, t+h, w*h, r, zg)
}

// solveImplicit finds z with z = r + coeff*f(tstar, z) by Newton iteration
// with a forward-difference Jacobian.
func (s *trbdf2) solveImplicit(f rhsFunc, tstar, coeff float64, r, guess []float64) ([]float64, error) {
	n := len(guess)
	z := clone(guess)
	res := make([]float64, n)
	var a mat.Dense

	for iter := 0; iter < 12; iter++ {
		fz := f(tstar, z)
		if !finite(fz) {
			return nil, errNewtonStalled
		}
		converged := true
		for i := range z {
			res[i] = z[i] - coeff*fz[i] - r[i]
			scale := s.atol + s.rtol*math.Abs(z[i])
			if math.Abs(res[i]) > 0.05*scale {
				converged = false
			}
		}
		if converged {
			return z, nil
		}

		jac := numJacobian(f, tstar, z, fz)
		a.Scale(-coeff, jac)
		for i := 0; i < n; i++ {
			a.Set(i, i, a.At(i, i)+1)
		}
		var lu mat.LU
		lu.Factorize(&a)
		var dz mat.VecDense
		if err := lu.SolveVecTo(&dz, false, mat.NewVecDense(n, res)); err != nil {
			return nil, err
		}
		for i := range z {
			z[i] -= dz.AtVec(i)
		}
		if !finite(z) {
			return nil, errNewtonStalled
		}
	}
	return nil, errNewtonStalled
}

// numJacobian estimates df/dz by forward differences; fz is f(t, z).
func numJacobian(f rhsFunc, t float64, z, fz []float64) *mat.Dense {
	n := len(z)
	jac := mat.NewDense(n, n, nil)
	zp := clone(z)
	for j := 0; j < n; j++ {
		hj := 1e-8 * (math.Abs(z[j]) + 1)
		zp[j] = z[j] + hj
		fp := f(t, zp)
		for i := 0; i < n; i++ {
			jac.Set(i, j, (fp[i]-fz[i])/hj)
		}
		zp[j] = z[j]
	}
	return jac
}

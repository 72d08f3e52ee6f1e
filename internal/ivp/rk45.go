package ivp

import "math"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// rk45 is the explicit Dormand-Prince 5(4) pair. Not suitable for stiff
// bristle dynamics; kept for smooth low-stiffness work.
type rk45 struct {
	atol, rtol float64
}

func (s *rk45) exponent() float64 { return 1.0 / 5.0 }

func (s *rk45) step(f rhsFunc, t float64, z []float64, h float64) ([]float64, float64, error) {
	n := len(z)

	k1 := f(t, z)

	z2 := make([]float64, n)
	for i := 0; i < n; i++ {
		z2[i] = z[i] + h*b21*k1[i]
	}
	k2 := f(t+a2*h, z2)

	z3 := make([]float64, n)
	for i := 0; i < n; i++ {
		z3[i] = z[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := f(t+a3*h, z3)

	z4 := make([]float64, n)
	for i := 0; i < n; i++ {
		z4[i] = z[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := f(t+a4*h, z4)

	z5 := make([]float64, n)
	for i := 0; i < n; i++ {
		z5[i] = z[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := f(t+a5*h, z5)

	z6 := make([]float64, n)
	for i := 0; i < n; i++ {
		z6[i] = z[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := f(t+h, z6)

	zNew := make([]float64, n)
	for i := 0; i < n; i++ {
		zNew[i] = z[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	k7 := f(t+h, zNew)

	errNorm := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := s.atol + s.rtol*math.Max(math.Abs(z[i]), math.Abs(zNew[i]))
		errNorm = math.Max(errNorm, math.Abs(errEst)/scale)
	}
	return zNew, errNorm, nil
}

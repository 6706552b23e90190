package integrators

import (
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau
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

// DormandPrince takes fixed fifth-order steps. The embedded fourth-order
// solution is only used to report the local error of the last step; the
// step size is never changed. Not safe for concurrent use.
type DormandPrince struct {
	k       [7]dynamo.State
	scratch dynamo.State
	lastErr float64
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{}
}

func (d *DormandPrince) ensureScratch(n int) {
	if len(d.scratch) != n {
		for i := range d.k {
			d.k[i] = make(dynamo.State, n)
		}
		d.scratch = make(dynamo.State, n)
	}
}

func (d *DormandPrince) Delta(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	d.ensureScratch(n)
	k1, k2, k3, k4, k5, k6, k7 := d.k[0], d.k[1], d.k[2], d.k[3], d.k[4], d.k[5], d.k[6]

	copy(k1, dyn.Derive(x, t))

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*b21*k1[i]
	}
	copy(k2, dyn.Derive(d.scratch, t+a2*dt))

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	copy(k3, dyn.Derive(d.scratch, t+a3*dt))

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	copy(k4, dyn.Derive(d.scratch, t+a4*dt))

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	copy(k5, dyn.Derive(d.scratch, t+a5*dt))

	for i := 0; i < n; i++ {
		d.scratch[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	copy(k6, dyn.Derive(d.scratch, t+dt))

	delta := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		delta[i] = dt * (c1*k1[i] + c3*k3[i] + c4*k4[i] + c5*k5[i] + c6*k6[i])
		d.scratch[i] = x[i] + delta[i]
	}
	copy(k7, dyn.Derive(d.scratch, t+dt))

	d.lastErr = 0
	for i := 0; i < n; i++ {
		est := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		d.lastErr = math.Max(d.lastErr, math.Abs(est))
	}

	return delta
}

// LocalError is the max-norm difference between the fifth and fourth
// order solutions of the most recent Delta call.
func (d *DormandPrince) LocalError() float64 {
	return d.lastErr
}

package integrators

import "github.com/san-kum/dpsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme. It reuses scratch
// buffers between calls and is not safe for concurrent use.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// Delta returns dt/6·(k1 + 2k2 + 2k3 + k4) and leaves x untouched, so the
// caller decides what happens between integration and commit.
func (r *RK4) Delta(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, dyn.Derive(x, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + 0.5*dt*r.k1[i]
	}
	copy(r.k2, dyn.Derive(r.scratch, t+0.5*dt))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + 0.5*dt*r.k2[i]
	}
	copy(r.k3, dyn.Derive(r.scratch, t+0.5*dt))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, dyn.Derive(r.scratch, t+dt))

	delta := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		delta[i] = dt6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}

	return delta
}

package integrators

import "github.com/san-kum/dpsim/internal/dynamo"

// SymplecticEuler updates the velocities first and then moves the
// coordinates with the new velocities. It assumes the state is laid out as
// [velocities..., coordinates...] with the time derivative of coordinate i
// equal to velocity i.
type SymplecticEuler struct {
	scratch dynamo.State
}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (s *SymplecticEuler) Delta(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2

	if len(s.scratch) != n {
		s.scratch = make(dynamo.State, n)
	}
	copy(s.scratch, dyn.Derive(x, t))

	delta := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		delta[i] = dt * s.scratch[i]
		delta[half+i] = dt * (x[i] + delta[i])
	}
	return delta
}

package integrators

import "github.com/san-kum/dpsim/internal/dynamo"

// Euler is the explicit first-order scheme, kept as a drift baseline.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Delta(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, t)
	delta := make(dynamo.State, len(x))
	for i := range x {
		delta[i] = dt * dx[i]
	}
	return delta
}

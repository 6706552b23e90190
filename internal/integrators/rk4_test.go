package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = dynamo.Advance(integ, dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestRK4DeltaDoesNotMutate(t *testing.T) {
	dp := physics.NewDoublePendulum()
	x := physics.InitialState(math.Pi, math.Pi/2, 0, 0)
	before := x.Clone()

	NewRK4().Delta(dp, x, 0, 0.0001)

	for i := range x {
		if x[i] != before[i] {
			t.Fatalf("Delta mutated state: %v -> %v", before, x)
		}
	}
}

func TestRK4DeltaDeterministic(t *testing.T) {
	dp := physics.NewDoublePendulum()
	x := dynamo.State{1.3, -0.4, 2.0, 0.5}
	integ := NewRK4()

	d1 := integ.Delta(dp, x, 0.25, 0.0001)
	d2 := integ.Delta(dp, x, 0.25, 0.0001)
	d3 := NewRK4().Delta(dp, x, 0.25, 0.0001)

	for i := range d1 {
		if math.Float64bits(d1[i]) != math.Float64bits(d2[i]) ||
			math.Float64bits(d1[i]) != math.Float64bits(d3[i]) {
			t.Errorf("delta[%d] not bit-identical: %v, %v, %v", i, d1[i], d2[i], d3[i])
		}
	}
}

func TestRK4DeltaReturnsFreshSlice(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	d1 := integ.Delta(dyn, dynamo.State{1, 0}, 0, 0.1)
	saved := d1.Clone()
	integ.Delta(dyn, dynamo.State{5, 5}, 0, 0.1)

	if d1[0] != saved[0] || d1[1] != saved[1] {
		t.Error("second call overwrote the first increment")
	}
}

func TestRK4EnergyConservation(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}
	initial := dyn.Energy(x)

	dt := 0.01
	for i := 0; i < 10000; i++ {
		x = dynamo.Advance(integ, dyn, x, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initial) / initial
	if drift > 1e-6 {
		t.Errorf("RK4 energy drift too high: %e", drift)
	}
}

func TestEulerDelta(t *testing.T) {
	dyn := &harmonicOscillator{}
	d := NewEuler().Delta(dyn, dynamo.State{1, 2}, 0, 0.1)

	if math.Abs(d[0]-0.2) > 1e-15 || math.Abs(d[1]+0.1) > 1e-15 {
		t.Errorf("expected [0.2 -0.1], got %v", d)
	}
}

func TestEulerDriftsMoreThanRK4(t *testing.T) {
	dp := physics.NewDoublePendulum()
	dp.Dissipation = 1
	x0 := physics.InitialState(1.0, 0.5, 0, 0)
	e0 := dp.Energy(x0)
	dt := 0.001

	drift := func(integ dynamo.Integrator) float64 {
		x := x0.Clone()
		for i := 0; i < 2000; i++ {
			x = dynamo.Advance(integ, dp, x, float64(i)*dt, dt)
		}
		return math.Abs(dp.Energy(x)-e0) / math.Abs(e0)
	}

	rk4, euler := drift(NewRK4()), drift(NewEuler())
	if rk4 >= euler {
		t.Errorf("expected RK4 drift %e below Euler drift %e", rk4, euler)
	}
}

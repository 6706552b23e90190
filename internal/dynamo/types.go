package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Sample holds the Cartesian positions of both masses at one time step.
// The pivot is the origin, y points up.
type Sample struct {
	X1, Y1 float64
	X2, Y2 float64
}

func (s Sample) IsValid() bool {
	return State{s.X1, s.Y1, s.X2, s.Y2}.IsValid()
}

// Trajectory is the ordered list of samples, one per time step.
type Trajectory []Sample

// Tip returns the path of the second mass.
func (tr Trajectory) Tip() (xs, ys []float64) {
	xs = make([]float64, len(tr))
	ys = make([]float64, len(tr))
	for i, s := range tr {
		xs[i], ys[i] = s.X2, s.Y2
	}
	return xs, ys
}

// System is an autonomous ODE right-hand side. t is accepted for symmetry
// with non-autonomous systems.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Kinematic systems map a state onto mass positions.
type Kinematic interface {
	System
	Positions(x State) Sample
}

// Dissipative systems damp a committed state in place after each step.
type Dissipative interface {
	Dissipate(x State)
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Validator interface {
	Validate() error
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Integrator computes the increment for one fixed step. Implementations
// must not mutate x.
type Integrator interface {
	Delta(dyn System, x State, t, dt float64) State
}

// Advance returns x plus one integrator increment.
func Advance(integ Integrator, dyn System, x State, t, dt float64) State {
	return x.Add(integ.Delta(dyn, x, t, dt))
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.0001,
		Duration:      10.0,
		ValidateState: true,
	}
}

// MaxSteps bounds the samples of a single run. A run this long holds about
// 1.6 GB of positions.
const MaxSteps = 50_000_000

// Steps is the number of samples a run produces: floor(Duration/Dt), with
// quotients that land within rounding error of an integer counted as that
// integer. Quotients beyond MaxSteps report MaxSteps+1.
func (c Config) Steps() int {
	if !(c.Dt > 0) || !(c.Duration > 0) {
		return 0
	}
	n := c.Duration / c.Dt
	if !(n <= MaxSteps) {
		return MaxSteps + 1
	}
	if r := math.Round(n); math.Abs(n-r) <= 1e-9*math.Max(1, r) {
		return int(r)
	}
	return int(math.Floor(n))
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.Steps() < 1 {
		return fmt.Errorf("%w: duration %g shorter than one step of %g", ErrInvalidConfig, c.Duration, c.Dt)
	}
	if c.Steps() > MaxSteps {
		return fmt.Errorf("%w: %g/%g exceeds %d steps", ErrInvalidConfig, c.Duration, c.Dt, MaxSteps)
	}
	return nil
}

type Result struct {
	Trajectory  Trajectory
	Final       State
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
}

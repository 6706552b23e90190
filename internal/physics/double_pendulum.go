package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

const (
	DefaultMass1       = 2.0
	DefaultMass2       = 5.0
	DefaultLength1     = 2.0
	DefaultLength2     = 1.0
	DefaultGravity     = 9.81
	DefaultDissipation = 0.999999
)

// State layout: [v1, v2, theta1, theta2]. Angles are measured from the
// downward vertical and are never wrapped.
const (
	IdxOmega1 = iota
	IdxOmega2
	IdxTheta1
	IdxTheta2
)

// DoublePendulum is a pair of point masses on rigid massless rods.
// Dissipation scales both angular velocities after every committed step.
type DoublePendulum struct {
	M1, M2      float64
	L1, L2      float64
	Gravity     float64
	Dissipation float64
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		M1: DefaultMass1, M2: DefaultMass2,
		L1: DefaultLength1, L2: DefaultLength2,
		Gravity:     DefaultGravity,
		Dissipation: DefaultDissipation,
	}
}

// InitialState builds [v1, v2, theta1, theta2].
func InitialState(theta1, theta2, omega1, omega2 float64) dynamo.State {
	return dynamo.State{omega1, omega2, theta1, theta2}
}

func (d *DoublePendulum) StateDim() int { return 4 }

// Derive returns [a1, a2, v1, v2] by solving the 2x2 mass-matrix system
// M·[a1 a2]ᵗ = f with its closed-form inverse.
func (d *DoublePendulum) Derive(x dynamo.State, t float64) dynamo.State {
	v1, v2 := x[IdxOmega1], x[IdxOmega2]
	theta1, theta2 := x[IdxTheta1], x[IdxTheta2]
	m1, m2, l1, l2, g := d.M1, d.M2, d.L1, d.L2, d.Gravity

	delta := theta1 - theta2
	sinD, cosD := math.Sin(delta), math.Cos(delta)

	m11, m12 := (m1+m2)*l1, m2*l2*cosD
	m21, m22 := l1*cosD, l2

	f1 := -m2*l2*v2*v2*sinD - (m1+m2)*g*math.Sin(theta1)
	f2 := l1*v1*v1*sinD - g*math.Sin(theta2)

	det := m11*m22 - m12*m21
	a1 := (m22*f1 - m12*f2) / det
	a2 := (-m21*f1 + m11*f2) / det

	return dynamo.State{a1, a2, v1, v2}
}

// TipPositions is the forward kinematics of the two rods.
func (d *DoublePendulum) TipPositions(theta1, theta2 float64) dynamo.Sample {
	x1 := d.L1 * math.Sin(theta1)
	y1 := -d.L1 * math.Cos(theta1)
	x2 := x1 + d.L2*math.Sin(theta2)
	y2 := y1 - d.L2*math.Cos(theta2)
	return dynamo.Sample{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (d *DoublePendulum) Positions(x dynamo.State) dynamo.Sample {
	return d.TipPositions(x[IdxTheta1], x[IdxTheta2])
}

func (d *DoublePendulum) Dissipate(x dynamo.State) {
	x[IdxOmega1] *= d.Dissipation
	x[IdxOmega2] *= d.Dissipation
}

func (d *DoublePendulum) Energy(x dynamo.State) float64 {
	v1, v2 := x[IdxOmega1], x[IdxOmega2]
	theta1, theta2 := x[IdxTheta1], x[IdxTheta2]
	m1, m2, l1, l2, g := d.M1, d.M2, d.L1, d.L2, d.Gravity

	v1sq := l1 * l1 * v1 * v1
	v2sq := l1*l1*v1*v1 + l2*l2*v2*v2 +
		2*l1*l2*v1*v2*math.Cos(theta1-theta2)

	ke := 0.5*m1*v1sq + 0.5*m2*v2sq
	y1 := -l1 * math.Cos(theta1)
	y2 := y1 - l2*math.Cos(theta2)
	pe := m1*g*y1 + m2*g*y2

	return ke + pe
}

// Timescale is sqrt(l/g) for the shorter rod, the fastest natural period
// scale of the system. Stable steps are a small fraction of it.
func (d *DoublePendulum) Timescale() float64 {
	return math.Sqrt(math.Min(d.L1, d.L2) / d.Gravity)
}

// Validate rejects degenerate parameters up front; a zero rod length makes
// the mass matrix singular.
func (d *DoublePendulum) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"m1", d.M1}, {"m2", d.M2},
		{"l1", d.L1}, {"l2", d.L2},
		{"gravity", d.Gravity},
	}
	for _, c := range checks {
		if !(c.value > 0) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", dynamo.ErrParameterBounds, c.name, c.value)
		}
	}
	if !(d.Dissipation > 0 && d.Dissipation <= 1) {
		return fmt.Errorf("%w: dissipation must be in (0,1], got %g", dynamo.ErrParameterBounds, d.Dissipation)
	}
	return nil
}

func (d *DoublePendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"m1":          d.M1,
		"m2":          d.M2,
		"l1":          d.L1,
		"l2":          d.L2,
		"gravity":     d.Gravity,
		"dissipation": d.Dissipation,
	}
}

// CanonicalParam maps accepted aliases onto the names GetParams reports.
func CanonicalParam(name string) string {
	if name == "g" {
		return "gravity"
	}
	return name
}

func (d *DoublePendulum) SetParam(name string, value float64) error {
	switch CanonicalParam(name) {
	case "m1":
		d.M1 = value
	case "m2":
		d.M2 = value
	case "l1":
		d.L1 = value
	case "l2":
		d.L2 = value
	case "gravity":
		d.Gravity = value
	case "dissipation":
		d.Dissipation = value
	default:
		return fmt.Errorf("%w: unknown param %q", dynamo.ErrInvalidConfig, name)
	}
	return nil
}

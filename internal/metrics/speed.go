package metrics

import (
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
)

// PeakSpeed tracks the largest magnitude of [v1, v2] seen during a run.
type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(x dynamo.State, t float64) {
	if len(x) <= physics.IdxOmega2 {
		return
	}
	p.peak = math.Max(p.peak, math.Hypot(x[physics.IdxOmega1], x[physics.IdxOmega2]))
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }

// Revolutions counts the full turns of the upper arm. Angles are never
// wrapped, so this is |theta1 - theta1(0)| / 2π at the last observation.
type Revolutions struct {
	name    string
	start   float64
	last    float64
	samples int
}

func NewRevolutions() *Revolutions {
	return &Revolutions{name: "revolutions"}
}

func (r *Revolutions) Name() string { return r.name }

func (r *Revolutions) Observe(x dynamo.State, t float64) {
	if len(x) <= physics.IdxTheta1 {
		return
	}
	if r.samples == 0 {
		r.start = x[physics.IdxTheta1]
	}
	r.last = x[physics.IdxTheta1]
	r.samples++
}

func (r *Revolutions) Value() float64 {
	return math.Floor(math.Abs(r.last-r.start) / (2 * math.Pi))
}

func (r *Revolutions) Reset() {
	r.start, r.last = 0, 0
	r.samples = 0
}

// ErrorEstimator is an integrator that reports the local truncation error
// of its last step.
type ErrorEstimator interface {
	LocalError() float64
}

// LocalError tracks the largest per-step error estimate of an embedded
// integrator over a run.
type LocalError struct {
	name string
	src  ErrorEstimator
	peak float64
}

func NewLocalError(src ErrorEstimator) *LocalError {
	return &LocalError{name: "local_error", src: src}
}

func (l *LocalError) Name() string { return l.name }

func (l *LocalError) Observe(x dynamo.State, t float64) {
	l.peak = math.Max(l.peak, l.src.LocalError())
}

func (l *LocalError) Value() float64 { return l.peak }

func (l *LocalError) Reset() { l.peak = 0 }

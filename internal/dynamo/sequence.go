package dynamo

import (
	"context"
	"fmt"
	"math"
)

// ctxCheckInterval is how many steps Collect runs between context checks.
const ctxCheckInterval = 1024

// maxPrealloc caps the up-front trajectory allocation in Collect.
const maxPrealloc = 1 << 20

// Sequence generates the samples of one trajectory on demand. It never
// mutates x0, so any number of cursors can replay it from the start.
type Sequence struct {
	dyn     Kinematic
	integ   Integrator
	x0      State
	cfg     Config
	steps   int
	metrics []Metric
}

func NewSequence(dyn Kinematic, integ Integrator, x0 State, cfg Config) (*Sequence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(x0), dyn.StateDim())
	}
	if !x0.IsValid() {
		return nil, ErrInvalidState
	}
	if v, ok := dyn.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &Sequence{
		dyn:     dyn,
		integ:   integ,
		x0:      x0.Clone(),
		cfg:     cfg,
		steps:   cfg.Steps(),
		metrics: make([]Metric, 0),
	}, nil
}

func (s *Sequence) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Len is the number of samples the sequence yields.
func (s *Sequence) Len() int { return s.steps }

func (s *Sequence) Config() Config { return s.cfg }

func (s *Sequence) Cursor() *Cursor {
	return &Cursor{seq: s, x: s.x0.Clone(), idx: -1}
}

// Collect runs a fresh cursor to completion. Any failure discards the
// whole trajectory.
func (s *Sequence) Collect(ctx context.Context) (*Result, error) {
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Trajectory: make(Trajectory, 0, min(s.steps, maxPrealloc)),
		Metrics:    make(map[string]float64),
	}

	cur := s.Cursor()
	for cur.Next() {
		if cur.idx%ctxCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err())
			default:
			}
		}

		result.Trajectory = append(result.Trajectory, cur.sample)
		t := cur.Time()
		for _, m := range s.metrics {
			m.Observe(cur.x, t)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	result.Final = cur.State()
	result.StepsTaken = len(result.Trajectory)

	if h, ok := s.dyn.(Hamiltonian); ok {
		initial, final := h.Energy(s.x0), h.Energy(result.Final)
		if initial != 0 {
			result.EnergyDrift = math.Abs(final-initial) / math.Abs(initial)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// Cursor pulls samples from a Sequence one step at a time. The sample for
// step idx is taken before the state is advanced, so the first sample is
// the initial condition.
type Cursor struct {
	seq    *Sequence
	x      State
	idx    int
	sample Sample
	err    error
	done   bool
}

// Next advances to the next sample. It returns false when the sequence is
// exhausted or the integration failed; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.err != nil || c.done {
		return false
	}
	next := c.idx + 1
	if next >= c.seq.steps {
		c.done = true
		return false
	}

	if next > 0 {
		dt := c.seq.cfg.Dt
		t := float64(c.idx) * dt
		c.x = Advance(c.seq.integ, c.seq.dyn, c.x, t, dt)
		if d, ok := c.seq.dyn.(Dissipative); ok {
			d.Dissipate(c.x)
		}
		if c.seq.cfg.ValidateState && !c.x.IsValid() {
			c.err = &SimulationError{Step: c.idx, Time: t, State: c.x.Clone(), Wrapped: ErrUnstable}
			return false
		}
	}

	c.idx = next
	c.sample = c.seq.dyn.Positions(c.x)
	return true
}

func (c *Cursor) Index() int { return c.idx }

func (c *Cursor) Time() float64 { return float64(c.idx) * c.seq.cfg.Dt }

func (c *Cursor) Sample() Sample { return c.sample }

// State returns a copy of the state the current sample was taken from.
func (c *Cursor) State() State { return c.x.Clone() }

func (c *Cursor) Err() error { return c.err }

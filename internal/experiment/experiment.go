package experiment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/logging"
	"github.com/san-kum/dpsim/internal/metrics"
	"github.com/san-kum/dpsim/internal/physics"
)

// StableStepRatio is the smallest ratio of the system timescale to dt that
// Run accepts without a warning.
const StableStepRatio = 100

// Experiment turns a run configuration into a trajectory. Every check that
// can fail without integrating runs before the first step.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	log       *logging.Logger
	overrides map[string]float64
}

func New(cfg *config.Config, registry *Registry, log *logging.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Experiment{
		cfg:       cfg,
		registry:  registry,
		log:       log,
		overrides: make(map[string]float64),
	}
}

// Override sets a physical parameter by name on top of the configuration.
// Aliases of the same parameter share one slot, so the last call wins.
func (e *Experiment) Override(name string, value float64) *Experiment {
	e.overrides[physics.CanonicalParam(name)] = value
	return e
}

// ApplyParams sets every named value on sys in sorted name order.
func ApplyParams(sys dynamo.Configurable, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := sys.SetParam(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}

// CheckParams reports the first name sys does not expose.
func CheckParams(sys dynamo.Configurable, names ...string) error {
	known := sys.GetParams()
	for _, name := range names {
		if _, ok := known[physics.CanonicalParam(name)]; !ok {
			return fmt.Errorf("%w: unknown param %q", dynamo.ErrInvalidConfig, name)
		}
	}
	return nil
}

type parts struct {
	system  *physics.DoublePendulum
	integ   dynamo.Integrator
	metrics []dynamo.Metric
}

func (e *Experiment) assemble() (*parts, error) {
	if err := e.cfg.SceneConfig().Validate(); err != nil {
		return nil, err
	}

	dp := e.cfg.System()
	if err := ApplyParams(dp, e.overrides); err != nil {
		return nil, err
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	ms := e.registry.DefaultMetrics(dp)
	if est, ok := integ.(metrics.ErrorEstimator); ok {
		ms = append(ms, metrics.NewLocalError(est))
	}
	return &parts{system: dp, integ: integ, metrics: ms}, nil
}

// MetricNames lists the metrics a run of this experiment reports, without
// integrating anything.
func (e *Experiment) MetricNames() ([]string, error) {
	p, err := e.assemble()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(p.metrics))
	for i, m := range p.metrics {
		names[i] = m.Name()
	}
	return names, nil
}

// Build validates the configuration and wires the sequence without
// integrating anything.
func (e *Experiment) Build() (*dynamo.Sequence, error) {
	seq, _, err := e.build()
	return seq, err
}

func (e *Experiment) build() (*dynamo.Sequence, *physics.DoublePendulum, error) {
	p, err := e.assemble()
	if err != nil {
		return nil, nil, err
	}

	seq, err := dynamo.NewSequence(p.system, p.integ, e.cfg.InitialState(), e.cfg.SimConfig())
	if err != nil {
		return nil, nil, err
	}
	for _, m := range p.metrics {
		seq.AddMetric(m)
	}
	return seq, p.system, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	seq, dp, err := e.build()
	if err != nil {
		e.log.Error(ctx, "preflight failed", err)
		return nil, err
	}
	e.log.Debug(ctx, "preflight ok",
		"integrator", e.cfg.Integrator,
		"dt", e.cfg.Dt,
		"steps", seq.Len(),
	)
	if ts := dp.Timescale(); e.cfg.Dt*StableStepRatio > ts {
		e.log.Warn(ctx, "dt is large next to the pendulum timescale",
			"dt", e.cfg.Dt,
			"timescale", ts,
		)
	}

	start := time.Now()
	result, err := seq.Collect(ctx)
	if err != nil {
		e.log.Error(ctx, "trajectory generation failed", err)
		return nil, err
	}

	e.log.Info(ctx, "trajectory generated",
		"steps", result.StepsTaken,
		"energy_drift", result.EnergyDrift,
		"elapsed", time.Since(start).String(),
	)
	return result, nil
}

// Job wraps the experiment for an Ensemble.
func (e *Experiment) Job(name string) dynamo.Job {
	return dynamo.Job{Name: name, Build: e.Build}
}

package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/logging"
)

// Sweep runs cfg once per value of the named physical parameter, in
// parallel. Results are in the order of values.
func Sweep(ctx context.Context, cfg *config.Config, param string, values []float64, workers int, log *logging.Logger) ([]*dynamo.Result, error) {
	if err := cfg.SceneConfig().Validate(); err != nil {
		return nil, err
	}
	if err := CheckParams(cfg.System(), param); err != nil {
		return nil, err
	}

	registry := NewRegistry()
	jobs := make([]dynamo.Job, len(values))
	for i, v := range values {
		exp := New(cfg, registry, log).Override(param, v)
		jobs[i] = exp.Job(fmt.Sprintf("%s=%g", param, v))
	}

	return dynamo.NewEnsemble(workers, jobs...).Run(ctx)
}

// Compare runs the same configuration with each named integrator.
func Compare(ctx context.Context, cfg *config.Config, names []string, log *logging.Logger) ([]*dynamo.Result, error) {
	registry := NewRegistry()
	jobs := make([]dynamo.Job, len(names))
	for i, name := range names {
		c := *cfg
		c.Integrator = name
		jobs[i] = New(&c, registry, log).Job(name)
	}

	return dynamo.NewEnsemble(0, jobs...).Run(ctx)
}

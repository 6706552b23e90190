// Package optim searches the physical parameter space of the pendulum for
// the run that optimizes one metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/experiment"
	"github.com/san-kum/dpsim/internal/logging"
)

// ErrNoBest is returned when no grid point yields an ordered metric value.
var ErrNoBest = errors.New("optim: no grid point has a comparable metric value")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// WithWorkers bounds how many runs are integrated at once.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	g.workers = n
	return g
}

// Points enumerates the cartesian product of the ranges, last parameter
// varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.collect(0, make(map[string]float64), &points)
	return points
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, maps.Clone(current))
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.collect(depth+1, current, out)
	}
	delete(current, paramName)
}

type Best struct {
	Params map[string]float64
	Value  float64
	Result *dynamo.Result
}

// Search runs every grid point on top of cfg and returns the point with the
// smallest metric value, or the largest when maximize is set. Any failed
// run fails the search.
func (g *GridSearch) Search(ctx context.Context, cfg *config.Config, metricName string, maximize bool, log *logging.Logger) (*Best, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%w: %d parameters but %d ranges", dynamo.ErrInvalidConfig, len(g.paramNames), len(g.ranges))
	}
	if err := cfg.SceneConfig().Validate(); err != nil {
		return nil, err
	}

	if err := experiment.CheckParams(cfg.System(), g.paramNames...); err != nil {
		return nil, err
	}

	registry := experiment.NewRegistry()
	names, err := experiment.New(cfg, registry, log).MetricNames()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, metricName) {
		return nil, fmt.Errorf("%w: unknown metric %q (have %s)", dynamo.ErrInvalidConfig, metricName, strings.Join(names, ", "))
	}

	points := g.Points()
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty grid", dynamo.ErrInvalidConfig)
	}

	jobs := make([]dynamo.Job, len(points))
	for i, p := range points {
		exp := experiment.New(cfg, registry, log)
		for name, v := range p {
			exp.Override(name, v)
		}
		jobs[i] = exp.Job(label(g.paramNames, p))
	}

	results, err := dynamo.NewEnsemble(g.workers, jobs...).Run(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(results))
	for i, res := range results {
		values[i] = res.Metrics[metricName]
	}
	i := pick(values, maximize)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s over %d points", ErrNoBest, metricName, len(points))
	}

	return &Best{Params: points[i], Value: values[i], Result: results[i]}, nil
}

// pick returns the index of the smallest value, or the largest when
// maximize is set. NaN never wins; -1 means nothing was comparable.
func pick(values []float64, maximize bool) int {
	best := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || (!maximize && v < values[best]) || (maximize && v > values[best]) {
			best = i
		}
	}
	return best
}

func label(names []string, p map[string]float64) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, p[n])
	}
	return strings.Join(parts, ",")
}

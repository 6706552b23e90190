package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/metrics"
	"github.com/san-kum/dpsim/internal/physics"
)

// Registry hands out fresh integrator and metric instances. Both keep
// per-run state, so nothing it returns is shared between runs.
type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["symplectic"] = func() dynamo.Integrator { return integrators.NewSymplecticEuler() }
	r.integrators["dopri5"] = func() dynamo.Integrator { return integrators.NewDormandPrince() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q (have %s)", dynamo.ErrInvalidConfig, name, strings.Join(r.ListIntegrators(), ", "))
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(dp *physics.DoublePendulum) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergy(dp),
		metrics.NewEnergyDrift(dp),
		metrics.NewPeakSpeed(),
		metrics.NewRevolutions(),
	}
}

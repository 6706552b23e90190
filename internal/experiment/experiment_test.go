package experiment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/logging"
	"github.com/san-kum/dpsim/internal/scene"
)

type countingIntegrator struct {
	calls *int
	inner dynamo.Integrator
}

func (c countingIntegrator) Delta(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	*c.calls++
	return c.inner.Delta(dyn, x, t, dt)
}

func shortConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Dt = 0.001
	cfg.TimeMax = 1
	cfg.Playback.TrailSeconds = 0.5
	return cfg
}

func countingRegistry(calls *int) *Registry {
	r := NewRegistry()
	r.integrators["counting"] = func() dynamo.Integrator {
		return countingIntegrator{calls: calls, inner: integrators.NewRK4()}
	}
	return r
}

func TestRun(t *testing.T) {
	res, err := New(shortConfig(), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Trajectory) != 1000 {
		t.Errorf("expected 1000 samples, got %d", len(res.Trajectory))
	}
	for _, name := range []string{"energy", "energy_drift", "peak_speed", "revolutions"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("expected metric %s", name)
		}
	}
}

func TestTrailLongerThanAnimationFailsBeforeIntegrating(t *testing.T) {
	calls := 0
	cfg := shortConfig()
	cfg.Integrator = "counting"
	cfg.Playback.TrailSeconds = cfg.TimeMax

	res, err := New(cfg, countingRegistry(&calls), nil).Run(context.Background())

	var cerr *scene.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !strings.Contains(err.Error(), "seconds of trail must be smaller than time of animation") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if res != nil {
		t.Error("expected no result")
	}
	if calls != 0 {
		t.Errorf("expected zero integrator calls, got %d", calls)
	}
}

func TestShortTrailFailsBeforeIntegrating(t *testing.T) {
	calls := 0
	cfg := shortConfig()
	cfg.Integrator = "counting"
	cfg.Playback.TrailSeconds = 0.001

	_, err := New(cfg, countingRegistry(&calls), nil).Run(context.Background())
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected zero integrator calls, got %d", calls)
	}
}

func TestCountingIntegratorCalledOncePerUpdate(t *testing.T) {
	calls := 0
	cfg := shortConfig()
	cfg.Integrator = "counting"

	res, err := New(cfg, countingRegistry(&calls), nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls != len(res.Trajectory)-1 {
		t.Errorf("expected %d updates, got %d", len(res.Trajectory)-1, calls)
	}
}

func TestUnknownIntegrator(t *testing.T) {
	cfg := shortConfig()
	cfg.Integrator = "magic"

	_, err := New(cfg, nil, nil).Run(context.Background())
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "dopri5, euler, rk4, symplectic") {
		t.Errorf("expected the known integrators in %q", err.Error())
	}
}

func TestOverride(t *testing.T) {
	cfg := shortConfig()

	_, err := New(cfg, nil, nil).Override("l2", -1).Run(context.Background())
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	_, err = New(cfg, nil, nil).Override("mass3", 1).Build()
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewLoggerTo(&buf, slog.LevelDebug)
	ctx := logging.WithRunID(context.Background(), "abc")

	if _, err := New(shortConfig(), nil, log).Run(ctx); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"preflight ok", "trajectory generated", `"run_id":"abc"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got %s", want, out)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.ListIntegrators()
	expected := []string{"dopri5", "euler", "rk4", "symplectic"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("expected %s at %d, got %s", expected[i], i, names[i])
		}
	}

	a, _ := r.GetIntegrator("rk4")
	b, _ := r.GetIntegrator("rk4")
	if a == b {
		t.Error("expected a fresh integrator per call")
	}
}

// recorder is a Configurable that remembers the order of SetParam calls.
type recorder struct {
	order []string
}

func (r *recorder) GetParams() map[string]float64 { return map[string]float64{"a": 0, "b": 0} }

func (r *recorder) SetParam(name string, value float64) error {
	r.order = append(r.order, name)
	return nil
}

func TestApplyParamsSortedOrder(t *testing.T) {
	for range 20 {
		rec := &recorder{}
		if err := ApplyParams(rec, map[string]float64{"c": 1, "a": 2, "b": 3}); err != nil {
			t.Fatal(err)
		}
		if strings.Join(rec.order, ",") != "a,b,c" {
			t.Fatalf("expected sorted order, got %v", rec.order)
		}
	}
}

func TestOverrideAliasLastWins(t *testing.T) {
	for range 20 {
		exp := New(shortConfig(), nil, nil).Override("g", 1).Override("gravity", 4)
		if len(exp.overrides) != 1 || exp.overrides["gravity"] != 4 {
			t.Fatalf("expected a single gravity override of 4, got %v", exp.overrides)
		}

		exp = New(shortConfig(), nil, nil).Override("gravity", 4).Override("g", 1)
		if exp.overrides["gravity"] != 1 {
			t.Fatalf("expected gravity 1, got %v", exp.overrides)
		}
	}
}

func TestCheckParams(t *testing.T) {
	sys := shortConfig().System()
	if err := CheckParams(sys, "l2", "g", "dissipation"); err != nil {
		t.Errorf("expected known params, got %v", err)
	}
	if err := CheckParams(sys, "l2", "mass3"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestMetricNames(t *testing.T) {
	cfg := shortConfig()
	names, err := New(cfg, nil, nil).MetricNames()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "energy,energy_drift,peak_speed,revolutions" {
		t.Errorf("unexpected rk4 metrics %v", names)
	}

	cfg.Integrator = "dopri5"
	names, err = New(cfg, nil, nil).MetricNames()
	if err != nil {
		t.Fatal(err)
	}
	if names[len(names)-1] != "local_error" {
		t.Errorf("expected local_error for dopri5, got %v", names)
	}
}

func TestRunReportsLocalError(t *testing.T) {
	cfg := shortConfig()
	cfg.Integrator = "dopri5"

	res, err := New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v := res.Metrics["local_error"]; !(v > 0 && v < 1e-6) {
		t.Errorf("expected a small positive local error, got %e", v)
	}
}

func TestRunWarnsOnCoarseStep(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewLoggerTo(&buf, slog.LevelWarn)

	if _, err := New(shortConfig(), nil, log).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "timescale") {
		t.Errorf("expected no warning at dt=0.001, got %s", buf.String())
	}

	cfg := shortConfig()
	cfg.Dt = 0.01
	if _, err := New(cfg, nil, log).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "dt is large next to the pendulum timescale") {
		t.Errorf("expected a timescale warning, got %s", buf.String())
	}
}

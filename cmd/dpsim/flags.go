package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/experiment"
)

// simFlags are the run parameters shared by every command that builds a
// configuration. Precedence: preset, then config file, then flags that
// were set explicitly.
type simFlags struct {
	configFile string
	preset     string

	integrator string
	dt         float64
	timeMax    float64

	m1, m2, l1, l2 float64
	g, dissipation float64

	theta1, theta2 float64
	omega1, omega2 float64

	fps   int
	trail float64
}

func (f *simFlags) bind(cmd *cobra.Command) {
	def := config.DefaultConfig()
	fl := cmd.Flags()

	fl.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fl.StringVar(&f.preset, "preset", "", "use preset configuration")

	fl.StringVar(&f.integrator, "integrator", def.Integrator,
		fmt.Sprintf("integrator (%s)", strings.Join(experiment.NewRegistry().ListIntegrators(), ", ")))
	fl.Float64Var(&f.dt, "dt", def.Dt, "timestep")
	fl.Float64Var(&f.timeMax, "time", def.TimeMax, "simulated time (s)")

	fl.Float64Var(&f.m1, "m1", def.Pendulum.M1, "mass of the upper bob")
	fl.Float64Var(&f.m2, "m2", def.Pendulum.M2, "mass of the lower bob")
	fl.Float64Var(&f.l1, "l1", def.Pendulum.L1, "length of the upper arm")
	fl.Float64Var(&f.l2, "l2", def.Pendulum.L2, "length of the lower arm")
	fl.Float64Var(&f.g, "g", def.Pendulum.G, "gravitational acceleration")
	fl.Float64Var(&f.dissipation, "dissipation", def.Pendulum.Dissipation, "velocity factor applied after each step, in (0,1]")

	fl.Float64Var(&f.theta1, "theta1", def.InitState.Theta1, "initial upper angle (rad)")
	fl.Float64Var(&f.theta2, "theta2", def.InitState.Theta2, "initial lower angle (rad)")
	fl.Float64Var(&f.omega1, "omega1", def.InitState.Omega1, "initial upper angular velocity")
	fl.Float64Var(&f.omega2, "omega2", def.InitState.Omega2, "initial lower angular velocity")

	fl.IntVar(&f.fps, "fps", def.Playback.FrameRate, "playback frame rate")
	fl.Float64Var(&f.trail, "trail", def.Playback.TrailSeconds, "seconds of trail behind the lower bob")
}

func (f *simFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}

	if f.configFile != "" {
		loaded, err := config.LoadOver(f.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"integrator", func() { cfg.Integrator = f.integrator }},
		{"dt", func() { cfg.Dt = f.dt }},
		{"time", func() { cfg.TimeMax = f.timeMax }},
		{"m1", func() { cfg.Pendulum.M1 = f.m1 }},
		{"m2", func() { cfg.Pendulum.M2 = f.m2 }},
		{"l1", func() { cfg.Pendulum.L1 = f.l1 }},
		{"l2", func() { cfg.Pendulum.L2 = f.l2 }},
		{"g", func() { cfg.Pendulum.G = f.g }},
		{"dissipation", func() { cfg.Pendulum.Dissipation = f.dissipation }},
		{"theta1", func() { cfg.InitState.Theta1 = f.theta1 }},
		{"theta2", func() { cfg.InitState.Theta2 = f.theta2 }},
		{"omega1", func() { cfg.InitState.Omega1 = f.omega1 }},
		{"omega2", func() { cfg.InitState.Omega2 = f.omega2 }},
		{"fps", func() { cfg.Playback.FrameRate = f.fps }},
		{"trail", func() { cfg.Playback.TrailSeconds = f.trail }},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			o.apply()
		}
	}

	return cfg, nil
}

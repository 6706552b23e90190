package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/scene"
)

const (
	DefaultDt         = 0.0001
	DefaultTimeMax    = 10.0
	DefaultIntegrator = "rk4"
	DefaultTheta1     = math.Pi
	DefaultTheta2     = math.Pi / 2
)

type Config struct {
	Integrator string          `yaml:"integrator"`
	Dt         float64         `yaml:"dt"`
	TimeMax    float64         `yaml:"time_max"`
	Pendulum   PendulumConfig  `yaml:"physics"`
	InitState  InitStateConfig `yaml:"init_state"`
	Playback   PlaybackConfig  `yaml:"scene"`
}

type PendulumConfig struct {
	M1          float64 `yaml:"m1"`
	M2          float64 `yaml:"m2"`
	L1          float64 `yaml:"l1"`
	L2          float64 `yaml:"l2"`
	G           float64 `yaml:"g"`
	Dissipation float64 `yaml:"dissipation"`
}

type InitStateConfig struct {
	Theta1 float64 `yaml:"theta1"`
	Theta2 float64 `yaml:"theta2"`
	Omega1 float64 `yaml:"omega1"`
	Omega2 float64 `yaml:"omega2"`
}

type PlaybackConfig struct {
	FrameRate    int     `yaml:"fps"`
	TrailSeconds float64 `yaml:"trail_seconds"`
	Columns      int     `yaml:"columns"`
	Rows         int     `yaml:"rows"`
	Extent       float64 `yaml:"extent"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		TimeMax:    DefaultTimeMax,
		Pendulum: PendulumConfig{
			M1:          physics.DefaultMass1,
			M2:          physics.DefaultMass2,
			L1:          physics.DefaultLength1,
			L2:          physics.DefaultLength2,
			G:           physics.DefaultGravity,
			Dissipation: physics.DefaultDissipation,
		},
		InitState: InitStateConfig{
			Theta1: DefaultTheta1,
			Theta2: DefaultTheta2,
		},
		Playback: PlaybackConfig{
			FrameRate:    scene.DefaultFrameRate,
			TrailSeconds: scene.DefaultTrailSeconds,
			Columns:      scene.DefaultColumns,
			Rows:         scene.DefaultRows,
			Extent:       scene.DefaultExtent,
		},
	}
}

// Load reads a YAML run file. Keys missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver applies the keys present in the file on top of a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) System() *physics.DoublePendulum {
	return &physics.DoublePendulum{
		M1:          c.Pendulum.M1,
		M2:          c.Pendulum.M2,
		L1:          c.Pendulum.L1,
		L2:          c.Pendulum.L2,
		Gravity:     c.Pendulum.G,
		Dissipation: c.Pendulum.Dissipation,
	}
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Dt,
		Duration:      c.TimeMax,
		ValidateState: true,
	}
}

func (c *Config) SceneConfig() scene.Config {
	return scene.Config{
		FrameRate:    c.Playback.FrameRate,
		TimeMax:      c.TimeMax,
		TrailSeconds: c.Playback.TrailSeconds,
		Columns:      c.Playback.Columns,
		Rows:         c.Playback.Rows,
		Extent:       c.Playback.Extent,
	}
}

func (c *Config) InitialState() dynamo.State {
	return physics.InitialState(c.InitState.Theta1, c.InitState.Theta2, c.InitState.Omega1, c.InitState.Omega2)
}

// Validate runs every pre-flight check: playback timing first, then the
// physical parameters and the integration grid.
func (c *Config) Validate() error {
	if err := c.SceneConfig().Validate(); err != nil {
		return err
	}
	if err := c.System().Validate(); err != nil {
		return err
	}
	return c.SimConfig().Validate()
}

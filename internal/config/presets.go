package config

import (
	"math"
	"sort"
)

var Presets = map[string]*Config{
	// m1=2 m2=5 l1=2 l2=1 released from (pi, pi/2) with light damping
	"classic": DefaultConfig(),
	"conservative": func() *Config {
		c := DefaultConfig()
		c.Pendulum.Dissipation = 1
		return c
	}(),
	// short clip with a one-frame trail
	"scene": func() *Config {
		c := DefaultConfig()
		c.TimeMax = 5
		c.Playback.FrameRate = 30
		c.Playback.TrailSeconds = 0.04
		return c
	}(),
	"gentle": func() *Config {
		c := DefaultConfig()
		c.Dt = 0.001
		c.Pendulum.Dissipation = 1
		c.InitState = InitStateConfig{Theta1: 0.3, Theta2: 0.3}
		return c
	}(),
	"upright": func() *Config {
		c := DefaultConfig()
		c.InitState = InitStateConfig{Theta1: math.Pi, Theta2: math.Pi - 0.01}
		return c
	}(),
}

// GetPreset returns a copy the caller may modify, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

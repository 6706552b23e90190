// Package scene plans the playback of a trajectory: how many simulation
// steps make one rendered frame and which past samples form the trail of
// the second mass. It owns no simulation state; the renderer receives a
// Config by value and pulls frames from a finished trajectory.
package scene

import (
	"fmt"
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

const (
	DefaultFrameRate    = 60
	DefaultTimeMax      = 10.0
	DefaultTrailSeconds = 2.5
	DefaultColumns      = 60
	DefaultRows         = 24
	DefaultExtent       = 4.0
)

// Config is the renderer-side configuration.
type Config struct {
	FrameRate    int
	TimeMax      float64
	TrailSeconds float64

	// Terminal canvas size in cells and the half-width of the visible
	// world square.
	Columns, Rows int
	Extent        float64
}

func DefaultConfig() Config {
	return Config{
		FrameRate:    DefaultFrameRate,
		TimeMax:      DefaultTimeMax,
		TrailSeconds: DefaultTrailSeconds,
		Columns:      DefaultColumns,
		Rows:         DefaultRows,
		Extent:       DefaultExtent,
	}
}

// ConfigError reports an invalid playback configuration. It is fatal and
// raised before any simulation work.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scene: invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return dynamo.ErrInvalidConfig
}

// Runtime is the duration of one rendered frame in seconds.
func (c Config) Runtime() float64 {
	return 1 / float64(c.FrameRate)
}

// Validate is the pre-flight check callers run before generating a
// trajectory.
func (c Config) Validate() error {
	if c.FrameRate <= 0 {
		return &ConfigError{Field: "frame_rate", Value: float64(c.FrameRate), Reason: "frame rate must be positive"}
	}
	if !(c.TimeMax > 0) || math.IsInf(c.TimeMax, 0) {
		return &ConfigError{Field: "time_max", Value: c.TimeMax, Reason: "time of animation must be positive and finite"}
	}
	if !(c.TrailSeconds < c.TimeMax) {
		return &ConfigError{Field: "trail_seconds", Value: c.TrailSeconds, Reason: "seconds of trail must be smaller than time of animation"}
	}
	if !(c.TrailSeconds >= c.Runtime()) {
		return &ConfigError{Field: "trail_seconds", Value: c.TrailSeconds, Reason: "seconds of trail must be greater than runtime of each frame"}
	}
	return nil
}

// Stride is the number of simulation steps per rendered frame, at least 1.
func (c Config) Stride(dt float64) int {
	n := dynamo.Config{Dt: dt, Duration: c.Runtime()}.Steps()
	if n < 1 {
		return 1
	}
	return n
}

// TrailWindow is the number of simulation steps covered by the trail.
func (c Config) TrailWindow(dt float64) int {
	return dynamo.Config{Dt: dt, Duration: c.TrailSeconds}.Steps()
}

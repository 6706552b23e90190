package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the integration diverged; usually dt is too large.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a physical parameter is outside its valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidConfig indicates an invalid run or playback configuration.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

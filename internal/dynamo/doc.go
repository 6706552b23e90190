// Package dynamo provides the core primitives for integrating a planar
// double pendulum and turning its motion into position samples.
//
// The package defines the fundamental types and interfaces:
//
//   - [State]: vector representing system state
//   - [System]: interface for autonomous ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step scheme returning a state increment
//   - [Sequence]: lazy, finite, restartable trajectory generator
//   - [Ensemble]: runs independent sequences concurrently
//
// # Example
//
//	dp := physics.NewDoublePendulum()
//	seq, err := dynamo.NewSequence(dp, integrators.NewRK4(), x0, cfg)
//	if err != nil {
//	    return err
//	}
//	cur := seq.Cursor()
//	for cur.Next() {
//	    s := cur.Sample()
//	    // draw s.X1, s.Y1, s.X2, s.Y2
//	}
//	if err := cur.Err(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// A Cursor and the integrator it drives are NOT safe for concurrent use.
// For parallel runs use [Ensemble], which gives every job its own system,
// integrator and sequence.
package dynamo

// Package physics provides the double pendulum model.
//
// [DoublePendulum] implements [dynamo.Kinematic] (equations of motion and
// forward kinematics), [dynamo.Dissipative] for the per-step velocity
// damping, [dynamo.Hamiltonian] for energy monitoring, and
// [dynamo.Configurable] for named parameter sweeps.
//
// # Energy Conservation
//
// With Dissipation = 1 the total energy is conserved up to integration
// error, which makes it a cheap regression check on the integrator:
//
//	dp := physics.NewDoublePendulum()
//	dp.Dissipation = 1
//	e0 := dp.Energy(x0)
package physics

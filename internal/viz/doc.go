// Package viz plays back double-pendulum trajectories in the terminal.
//
// [Player] is a Bubble Tea model that pulls frames from a scene plan and
// draws both arms and the trail of the second mass on a braille [Canvas].
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	→ / L - Step one frame
//	R     - Restart from the first frame
//	Q     - Quit
package viz

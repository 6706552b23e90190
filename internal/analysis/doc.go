// Package analysis turns generated trajectories into diagnostic views.
//
// [GeneratePhasePortrait] replays a sequence and records two state slots
// against each other; [PhasePortraitToASCII] renders the result for the
// terminal. Angles are never wrapped, so a spinning arm drifts sideways
// across the portrait instead of folding back.
package analysis

// Package orchestrator runs a cookie acquisition over a list of targets.
//
// One browser session is opened for the run and every target is visited in
// input order. A failing target is recorded and the run moves on. Overall
// progress is split into equal bands, one per target, so it never goes
// backwards and ends at exactly 100. The session is closed exactly once,
// whatever path the run takes.
package orchestrator

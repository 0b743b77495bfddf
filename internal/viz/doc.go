// Package viz provides terminal-based visualization for simulation runs.
//
// The package renders completed runs as ASCII line charts and implements a
// live TUI on the Bubble Tea framework that steps a run in real time:
//
//   - [Plot]: static multi-series chart of a finished run
//   - [Model]: interactive live view over a stepping runtime
//
// # Key Bindings
//
//	Space - Pause/Resume the run
//	R     - Restart from the initial state
//	Tab   - Cycle the focused variable
//	Q     - Quit
package viz

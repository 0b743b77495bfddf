// Package sim executes compiled System Dynamics models over time.
//
//   - [Evaluator]: computes every variable's value at one instant
//   - [Runtime]: owns simulation time and all stateful elements' memory,
//     drives the evaluate/update/advance step loop
//   - [Ensemble]: runs independent scenarios of one model in parallel
//
// # Thread Safety
//
// A Runtime is NOT thread-safe; within a run, execution is strictly
// sequential. The compiled plan it executes is immutable, so any number of
// Runtimes may share one plan concurrently. Ensemble relies on exactly
// that: runs never share mutable state.
package sim

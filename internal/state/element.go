// Package state implements the memory-carrying simulation elements: stocks,
// delays, smoothing averages, sample-and-holds, trends and one-shot
// initial captures. Each element owns its internal state and advances it by
// an explicit update rule once per step.
//
// Updates are pure in (prior state, input, time, step size). The runtime
// computes every element's input from the same pre-step snapshot before
// applying any update, so no element ever observes another's post-step
// value within a step.
package state

// Element is one memory-carrying variable's runtime state.
type Element interface {
	// Current returns the element's reported value for the current instant.
	Current() float64
	// Update advances internal state by one step. input is the element's
	// defining equation (a stock's net flow, otherwise the input signal)
	// evaluated against the pre-step snapshot at time t.
	Update(input, t, dt float64)
}

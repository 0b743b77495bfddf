package state

import "math"

// Delay reports the value its input had a fixed duration ago.
//
// With order zero it is a pure pipeline: a ring buffer holds the most
// recent inputs and the output is the entry from duration ago. With order
// n >= 1 it is an n-stage material delay chain, the classic DELAY-n
// construct, where mass in transit is spread across n internal stocks.
//
// Both forms are seeded under the steady-state assumption that the input
// had always equaled the initial value, so a constant input equal to the
// initial reports that constant at every step.
type Delay struct {
	duration float64
	out      float64

	// pipeline form
	buf  []float64
	head int

	// material form
	stages []float64
}

// NewDelay creates a fixed pipeline delay. dt is the run's step size; the
// buffer length is duration rounded to whole steps, at least one.
func NewDelay(initial, duration, dt float64) *Delay {
	steps := int(math.Round(duration / dt))
	if steps < 1 {
		steps = 1
	}
	buf := make([]float64, steps)
	for i := range buf {
		buf[i] = initial
	}
	return &Delay{duration: duration, out: initial, buf: buf}
}

// NewDelayN creates an order-n material delay chain, each stage seeded to
// initial * duration / n.
func NewDelayN(initial, duration float64, order int) *Delay {
	stages := make([]float64, order)
	for i := range stages {
		stages[i] = initial * duration / float64(order)
	}
	return &Delay{duration: duration, out: initial, stages: stages}
}

func (d *Delay) Current() float64 { return d.out }

func (d *Delay) Update(input, t, dt float64) {
	if d.stages == nil {
		// exchange the oldest buffered input for the newest
		d.out = d.buf[d.head]
		d.buf[d.head] = input
		d.head = (d.head + 1) % len(d.buf)
		return
	}

	n := float64(len(d.stages))
	perStage := d.duration / n
	// outflow rates from prior stage levels, applied simultaneously
	rates := make([]float64, len(d.stages))
	for i, level := range d.stages {
		rates[i] = level / perStage
	}
	inflow := input
	for i := range d.stages {
		d.stages[i] += dt * (inflow - rates[i])
		inflow = rates[i]
	}
	d.out = rates[len(rates)-1]
}

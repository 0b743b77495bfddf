package state

// Sample is a sample-and-hold: it re-captures its input at periodic
// sampling instants and holds the captured value in between. The start
// time itself counts as sampled (via the initial value); the next capture
// happens at start + period.
type Sample struct {
	period float64
	next   float64
	held   float64
}

// NewSample creates a hold seeded with initial, sampling at start + k*period.
func NewSample(initial, period, start float64) *Sample {
	return &Sample{period: period, next: start + period, held: initial}
}

func (s *Sample) Current() float64 { return s.held }

func (s *Sample) Update(input, t, dt float64) {
	// tolerate float drift up to half a step around the sampling instant
	if t >= s.next-dt/2 {
		s.held = input
		for t >= s.next-dt/2 {
			s.next += s.period
		}
	}
}

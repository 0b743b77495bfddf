package state

// Smooth is an exponential average of its input: an order-n cascade of
// first-order stages, each with averaging time T/n. Order 1 is the familiar
// SMOOTH; higher orders give the sigmoid response of SMOOTH-n. All stages
// are seeded to the initial value, so a constant input equal to the initial
// stays at steady state.
type Smooth struct {
	averageTime float64
	stages      []float64
}

// NewSmooth creates an order-n smooth seeded to initial. Orders below one
// are treated as one.
func NewSmooth(initial, averageTime float64, order int) *Smooth {
	if order < 1 {
		order = 1
	}
	stages := make([]float64, order)
	for i := range stages {
		stages[i] = initial
	}
	return &Smooth{averageTime: averageTime, stages: stages}
}

func (s *Smooth) Current() float64 { return s.stages[len(s.stages)-1] }

func (s *Smooth) Update(input, t, dt float64) {
	n := float64(len(s.stages))
	perStage := s.averageTime / n
	// derivatives from prior stage values, applied simultaneously
	prior := make([]float64, len(s.stages))
	copy(prior, s.stages)
	upstream := input
	for i := range s.stages {
		s.stages[i] += dt * (upstream - prior[i]) / perStage
		upstream = prior[i]
	}
}

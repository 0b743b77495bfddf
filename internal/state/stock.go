package state

// Stock is a level that accumulates its net flow over time by Euler
// integration.
type Stock struct {
	level float64
}

// NewStock creates a stock at its initial level.
func NewStock(initial float64) *Stock {
	return &Stock{level: initial}
}

func (s *Stock) Current() float64 { return s.level }

// Update integrates one step: level += dt * net flow.
func (s *Stock) Update(net, t, dt float64) {
	s.level += dt * net
}

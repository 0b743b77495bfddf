package state

// Initial captures its input's value during initialization and reports it
// unchanged for the rest of the run.
type Initial struct {
	value float64
}

// NewInitial captures value.
func NewInitial(value float64) *Initial {
	return &Initial{value: value}
}

func (i *Initial) Current() float64 { return i.value }

func (i *Initial) Update(input, t, dt float64) {}

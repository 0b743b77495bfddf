package state

// Trend estimates its input's fractional growth rate per time unit: the
// gap between the input and a first-order average of it, normalized by the
// average and the averaging time. The average is seeded so the element
// starts out reporting the given initial trend.
type Trend struct {
	averageTime float64
	avg         float64
	out         float64
}

// NewTrend seeds the average from the input's start value and the expected
// initial trend: avg = input / (1 + trend * T).
func NewTrend(input, averageTime, initialTrend float64) *Trend {
	denom := 1 + initialTrend*averageTime
	avg := input
	if denom != 0 {
		avg = input / denom
	}
	return &Trend{averageTime: averageTime, avg: avg, out: initialTrend}
}

func (tr *Trend) Current() float64 { return tr.out }

func (tr *Trend) Update(input, t, dt float64) {
	prior := tr.avg
	tr.avg += dt * (input - prior) / tr.averageTime
	if tr.avg == 0 {
		tr.out = 0
		return
	}
	tr.out = (input - tr.avg) / (tr.averageTime * tr.avg)
}

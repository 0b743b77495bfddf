package dynamo

import "math"

// Snapshot is an immutable view of every variable's value at one simulated
// instant. The name index is shared across all snapshots of a run; the
// values are private to each snapshot. Values are stored densely in
// declaration order so per-step work is slice indexing rather than map
// lookups.
type Snapshot struct {
	names  []string
	index  map[string]int
	values []float64
	time   float64
}

// NewSnapshot captures values (indexed like names) at the given time. The
// names slice and index map are retained, not copied; values are copied.
func NewSnapshot(names []string, index map[string]int, values []float64, time float64) Snapshot {
	vals := make([]float64, len(values))
	copy(vals, values)
	return Snapshot{names: names, index: index, values: vals, time: time}
}

// Time returns the simulated instant of this snapshot.
func (s Snapshot) Time() float64 { return s.time }

// Value returns the named variable's value. The reserved name "time"
// resolves to the snapshot's instant.
func (s Snapshot) Value(name string) (float64, bool) {
	if name == TimeName {
		return s.time, true
	}
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.values[i], true
}

// At returns the value at declaration position i.
func (s Snapshot) At(i int) float64 { return s.values[i] }

// Len returns the number of variables captured.
func (s Snapshot) Len() int { return len(s.values) }

// Names returns variable names in declaration order. The slice is shared;
// callers must not modify it.
func (s Snapshot) Names() []string { return s.names }

// IsValid reports whether every captured value is finite.
func (s Snapshot) IsValid() bool {
	for _, v := range s.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Result records the reported snapshots of a run. When a run halts on an
// error, snapshots recorded before the failure are preserved and Err holds
// the cause; a completed run leaves Err nil.
type Result struct {
	Names      []string
	Times      []float64
	Snapshots  []Snapshot
	StepsTaken int
	Err        error
}

// Series extracts one variable's reported values across time. The second
// return is false if the name is unknown.
func (r *Result) Series(name string) ([]float64, bool) {
	if len(r.Snapshots) == 0 {
		return nil, false
	}
	if _, ok := r.Snapshots[0].Value(name); !ok {
		return nil, false
	}
	out := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i], _ = s.Value(name)
	}
	return out, true
}

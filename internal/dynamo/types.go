package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// Kind classifies a model variable. Instantaneous kinds are recomputed from
// their equations at every instant; stateful kinds carry memory between
// steps and are read from simulation state instead.
type Kind int

const (
	KindConstant Kind = iota
	KindAuxiliary
	KindFlow
	KindStock
	KindLookup
	KindDelay
	KindSmooth
	KindSample
	KindTrend
	KindInitial
)

var kindNames = map[Kind]string{
	KindConstant:  "constant",
	KindAuxiliary: "auxiliary",
	KindFlow:      "flow",
	KindStock:     "stock",
	KindLookup:    "lookup",
	KindDelay:     "delay",
	KindSmooth:    "smooth",
	KindSample:    "sample",
	KindTrend:     "trend",
	KindInitial:   "initial",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Stateful reports whether variables of this kind own memory that persists
// across steps. References to stateful variables read stored state and do
// not constrain evaluation order.
func (k Kind) Stateful() bool {
	switch k {
	case KindStock, KindDelay, KindSmooth, KindSample, KindTrend, KindInitial:
		return true
	}
	return false
}

// ParseKind converts a model-file kind label to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Point is one lookup-table breakpoint.
type Point struct {
	X float64
	Y float64
}

// Table is a piecewise-linear lookup function defined by breakpoints in
// ascending x order.
type Table []Point

// At evaluates the table at x with linear interpolation between breakpoints.
// Outside the table's domain the nearest boundary value is returned; there
// is no extrapolation.
func (t Table) At(x float64) float64 {
	if len(t) == 0 {
		return math.NaN()
	}
	if x <= t[0].X {
		return t[0].Y
	}
	last := t[len(t)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(t); i++ {
		if x <= t[i].X {
			lo, hi := t[i-1], t[i]
			if hi.X == lo.X {
				return hi.Y
			}
			frac := (x - lo.X) / (hi.X - lo.X)
			return lo.Y + frac*(hi.Y-lo.Y)
		}
	}
	return last.Y
}

// Validate checks that breakpoints are strictly increasing in x.
func (t Table) Validate() error {
	for i := 1; i < len(t); i++ {
		if t[i].X <= t[i-1].X {
			return fmt.Errorf("%w: x=%v after x=%v", ErrBadTable, t[i].X, t[i-1].X)
		}
	}
	return nil
}

// Variable is one named model quantity. Equation holds the defining
// expression in source form: for instantaneous kinds the formula itself,
// for a stock the net flow, and for the remaining stateful kinds the input
// signal being transformed.
type Variable struct {
	Name     string
	Kind     Kind
	Equation string
	// Initial is the one-time initialization expression for stateful kinds.
	// Delay, smooth and sample default to their input's initial value when
	// empty; trend defaults to zero. Stocks require it.
	Initial string
	// Per-kind parameters, each an expression evaluated once at init time.
	Duration    string // delay: fixed signal delay
	AverageTime string // smooth, trend: first-order averaging time
	Period      string // sample: sampling period
	// Order selects the delay/smooth cascade depth. Zero means a pure
	// pipeline delay, or a single smoothing stage.
	Order  int
	Points Table // lookup breakpoints
	Doc    string
	Units  string
}

// Model is an immutable, ordered collection of variables. Declaration order
// is preserved and used as the deterministic tie-break when computing
// evaluation orders.
type Model struct {
	vars  []Variable
	index map[string]int
}

// NewModel builds a Model from declaration-ordered variables, rejecting
// duplicate or empty names and malformed lookup tables.
func NewModel(vars []Variable) (*Model, error) {
	m := &Model{
		vars:  make([]Variable, len(vars)),
		index: make(map[string]int, len(vars)),
	}
	copy(m.vars, vars)
	for i, v := range m.vars {
		if v.Name == "" {
			return nil, fmt.Errorf("variable %d: %w", i, ErrEmptyName)
		}
		if v.Name == TimeName {
			return nil, fmt.Errorf("variable %q: %w", v.Name, ErrReservedName)
		}
		if _, dup := m.index[v.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, v.Name)
		}
		if v.Kind == KindLookup {
			if len(v.Points) < 2 {
				return nil, fmt.Errorf("lookup %q: %w: needs at least two breakpoints", v.Name, ErrBadTable)
			}
			if err := v.Points.Validate(); err != nil {
				return nil, fmt.Errorf("lookup %q: %w", v.Name, err)
			}
		}
		m.index[v.Name] = i
	}
	return m, nil
}

// TimeName is the reserved reference to the current simulation time.
const TimeName = "time"

// Len returns the number of variables.
func (m *Model) Len() int { return len(m.vars) }

// At returns the variable at declaration position i.
func (m *Model) At(i int) Variable { return m.vars[i] }

// Index returns the declaration position of name.
func (m *Model) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Get returns the variable called name.
func (m *Model) Get(name string) (Variable, bool) {
	i, ok := m.index[name]
	if !ok {
		return Variable{}, false
	}
	return m.vars[i], true
}

// Names returns variable names in declaration order.
func (m *Model) Names() []string {
	names := make([]string, len(m.vars))
	for i, v := range m.vars {
		names[i] = v.Name
	}
	return names
}

// WithOverrides returns a copy of the model with the given variables'
// defining expressions replaced. For stateful kinds the initial-value
// expression is replaced instead, since that is the scenario knob for a
// quantity whose per-step behavior is its update rule. Unknown names fail.
func (m *Model) WithOverrides(overrides map[string]string) (*Model, error) {
	if len(overrides) == 0 {
		return m, nil
	}
	vars := make([]Variable, len(m.vars))
	copy(vars, m.vars)
	for name, src := range overrides {
		i, ok := m.index[name]
		if !ok {
			return nil, fmt.Errorf("override %q: %w", name, ErrUnknownVariable)
		}
		if vars[i].Kind.Stateful() {
			vars[i].Initial = src
		} else {
			vars[i].Equation = src
		}
	}
	return NewModel(vars)
}

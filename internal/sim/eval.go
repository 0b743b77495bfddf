package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/sysdyn/internal/dynamo"
	"github.com/san-kum/sysdyn/internal/expr"
	"github.com/san-kum/sysdyn/internal/graph"
)

// env adapts a dense value slice to the expression evaluator. Values are
// indexed by declaration position; the reserved name "time" resolves to t.
type env struct {
	plan *graph.Plan
	vals []float64
	t    float64
}

func (e *env) Ref(name string) (float64, error) {
	if name == dynamo.TimeName {
		return e.t, nil
	}
	i, ok := e.plan.Index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownVariable, name)
	}
	return e.vals[i], nil
}

func (e *env) Apply(name string, x float64) (float64, error) {
	i, ok := e.plan.Index[name]
	if !ok || e.plan.Vars[i].Var.Kind != dynamo.KindLookup {
		return 0, fmt.Errorf("%w: %q", expr.ErrUnknownFunction, name)
	}
	return e.plan.Vars[i].Var.Points.At(x), nil
}

// Evaluator computes a complete snapshot at one instant by walking the
// plan's evaluation order. It is stateless between calls: the same
// (stateful values, time) input always yields the same snapshot.
type Evaluator struct {
	plan *graph.Plan
}

// NewEvaluator creates an evaluator over the compiled plan.
func NewEvaluator(plan *graph.Plan) *Evaluator {
	return &Evaluator{plan: plan}
}

// evaluate fills vals with every variable's value at time t. current
// supplies stateful variables' stored values; those are written first so
// instantaneous equations may reference them regardless of position in the
// order. Instantaneous variables are then computed in topological order.
func (ev *Evaluator) evaluate(vals []float64, current func(i int) float64, t float64) error {
	plan := ev.plan
	for _, i := range plan.Order {
		if plan.Vars[i].Var.Kind.Stateful() {
			vals[i] = current(i)
		}
	}
	e := &env{plan: plan, vals: vals, t: t}
	for _, i := range plan.Order {
		c := plan.Vars[i]
		switch {
		case c.Var.Kind.Stateful():
			continue
		case c.Var.Kind == dynamo.KindLookup:
			// a bare lookup reference reads the table at the current time
			vals[i] = c.Var.Points.At(t)
		default:
			v, err := expr.Eval(c.Equation, e)
			if err != nil {
				return &dynamo.NumericDomainError{Variable: c.Var.Name, Time: t, Reason: err.Error()}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &dynamo.NumericDomainError{Variable: c.Var.Name, Time: t, Reason: "non-finite result"}
			}
			vals[i] = v
		}
	}
	return nil
}

// Evaluate produces the snapshot at time t given the stateful variables'
// current values.
func (ev *Evaluator) Evaluate(current func(i int) float64, t float64) (dynamo.Snapshot, error) {
	vals := make([]float64, len(ev.plan.Vars))
	if err := ev.evaluate(vals, current, t); err != nil {
		return dynamo.Snapshot{}, err
	}
	return dynamo.NewSnapshot(ev.plan.Names, ev.plan.Index, vals, t), nil
}

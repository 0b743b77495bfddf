package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/sysdyn/internal/dynamo"
	"github.com/san-kum/sysdyn/internal/expr"
	"github.com/san-kum/sysdyn/internal/graph"
	"github.com/san-kum/sysdyn/internal/state"
)

// Phase tracks a run through its lifecycle.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseRunning
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Runtime executes one simulation run. It owns the current time and every
// stateful element's memory; the compiled plan it executes stays immutable
// and shareable.
type Runtime struct {
	plan *graph.Plan
	cfg  dynamo.Config
	eval *Evaluator

	phase    Phase
	stepIdx  int
	t        float64
	elements []state.Element // indexed by declaration position, nil for instantaneous
	stateful []int           // declaration positions of stateful variables
	result   *dynamo.Result
}

// New compiles a runtime for the model under cfg. Overrides in cfg are
// applied before the dependency graph is built, so a scenario that changes
// a variable's reference set gets a freshly computed order.
func New(model *dynamo.Model, cfg dynamo.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := model.WithOverrides(cfg.Overrides)
	if err != nil {
		return nil, err
	}
	plan, err := graph.Build(model)
	if err != nil {
		return nil, err
	}
	return newRuntime(plan, cfg), nil
}

// NewFromPlan creates a runtime over an already-compiled plan, for callers
// sharing one plan across runs. cfg must not carry overrides; those change
// the plan and belong in New.
func NewFromPlan(plan *graph.Plan, cfg dynamo.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Overrides) > 0 {
		return nil, fmt.Errorf("sim: overrides require recompilation, use New")
	}
	return newRuntime(plan, cfg), nil
}

func newRuntime(plan *graph.Plan, cfg dynamo.Config) *Runtime {
	r := &Runtime{
		plan:  plan,
		cfg:   cfg,
		eval:  NewEvaluator(plan),
		phase: PhaseUninitialized,
		t:     cfg.StartTime,
	}
	for i := range plan.Vars {
		if plan.Vars[i].Var.Kind.Stateful() {
			r.stateful = append(r.stateful, i)
		}
	}
	return r
}

// Phase returns the runtime's lifecycle phase.
func (r *Runtime) Phase() Phase { return r.phase }

// Time returns the current simulation time.
func (r *Runtime) Time() float64 { return r.t }

// Names returns variable names in declaration order.
func (r *Runtime) Names() []string { return r.plan.Names }

// Done reports whether time has reached the configured end.
func (r *Runtime) Done() bool { return r.stepIdx >= r.cfg.Steps() }

// Init evaluates every initial-value equation in init-dependency order,
// seeds all stateful elements, and sets time to the start time. A stateful
// variable referenced during init resolves to its own initial value.
func (r *Runtime) Init() error {
	if r.phase != PhaseUninitialized {
		return fmt.Errorf("sim: init in phase %s", r.phase)
	}
	plan := r.plan
	t0 := r.cfg.StartTime
	vals := make([]float64, len(plan.Vars))
	e := &env{plan: plan, vals: vals, t: t0}

	evalNode := func(name string, node expr.Node) (float64, error) {
		v, err := expr.Eval(node, e)
		if err != nil {
			return 0, &dynamo.NumericDomainError{Variable: name, Time: t0, Reason: err.Error()}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &dynamo.NumericDomainError{Variable: name, Time: t0, Reason: "non-finite initial value"}
		}
		return v, nil
	}
	param := func(name, label string, node expr.Node) (float64, error) {
		v, err := evalNode(name, node)
		if err != nil {
			return 0, err
		}
		if v <= 0 {
			return 0, fmt.Errorf("%w: %s %q: %s %v", dynamo.ErrBadParameter, "element", name, label, v)
		}
		return v, nil
	}

	r.elements = make([]state.Element, len(plan.Vars))
	for _, i := range plan.InitOrder {
		c := plan.Vars[i]
		name := c.Var.Name

		if !c.Var.Kind.Stateful() {
			if c.Var.Kind == dynamo.KindLookup {
				vals[i] = c.Var.Points.At(t0)
				continue
			}
			v, err := evalNode(name, c.Equation)
			if err != nil {
				return r.fail(err)
			}
			vals[i] = v
			continue
		}

		// seed value: the explicit initial equation, else the input signal
		seedNode := c.Initial
		if seedNode == nil && c.Var.Kind != dynamo.KindTrend {
			seedNode = c.Equation
		}

		switch c.Var.Kind {
		case dynamo.KindStock:
			seed, err := evalNode(name, seedNode)
			if err != nil {
				return r.fail(err)
			}
			r.elements[i] = state.NewStock(seed)
			vals[i] = seed

		case dynamo.KindDelay:
			seed, err := evalNode(name, seedNode)
			if err != nil {
				return r.fail(err)
			}
			dur, err := param(name, "duration", c.Duration)
			if err != nil {
				return r.fail(err)
			}
			if c.Var.Order < 1 {
				r.elements[i] = state.NewDelay(seed, dur, r.cfg.Dt)
			} else {
				r.elements[i] = state.NewDelayN(seed, dur, c.Var.Order)
			}
			vals[i] = seed

		case dynamo.KindSmooth:
			seed, err := evalNode(name, seedNode)
			if err != nil {
				return r.fail(err)
			}
			avgT, err := param(name, "averaging time", c.AverageTime)
			if err != nil {
				return r.fail(err)
			}
			r.elements[i] = state.NewSmooth(seed, avgT, c.Var.Order)
			vals[i] = seed

		case dynamo.KindTrend:
			input, err := evalNode(name, c.Equation)
			if err != nil {
				return r.fail(err)
			}
			avgT, err := param(name, "averaging time", c.AverageTime)
			if err != nil {
				return r.fail(err)
			}
			initTrend := 0.0
			if c.Initial != nil {
				if initTrend, err = evalNode(name, c.Initial); err != nil {
					return r.fail(err)
				}
			}
			r.elements[i] = state.NewTrend(input, avgT, initTrend)
			vals[i] = initTrend

		case dynamo.KindSample:
			seed, err := evalNode(name, seedNode)
			if err != nil {
				return r.fail(err)
			}
			period, err := param(name, "period", c.Period)
			if err != nil {
				return r.fail(err)
			}
			r.elements[i] = state.NewSample(seed, period, t0)
			vals[i] = seed

		case dynamo.KindInitial:
			seed, err := evalNode(name, c.Equation)
			if err != nil {
				return r.fail(err)
			}
			r.elements[i] = state.NewInitial(seed)
			vals[i] = seed
		}
	}

	r.t = t0
	r.stepIdx = 0
	r.result = &dynamo.Result{Names: plan.Names}
	r.phase = PhaseInitialized
	return nil
}

func (r *Runtime) fail(err error) error {
	r.phase = PhaseFailed
	if r.result != nil {
		r.result.Err = err
	}
	return err
}

func (r *Runtime) current(i int) float64 {
	return r.elements[i].Current()
}

// Step evaluates the current instant and advances one time step: every
// stateful element's input is computed from the pre-step snapshot, then all
// elements update from those inputs, then time moves forward. The returned
// snapshot is the pre-step one. At the end time the run is marked completed
// and time no longer advances.
func (r *Runtime) Step() (dynamo.Snapshot, error) {
	if r.phase != PhaseInitialized && r.phase != PhaseRunning {
		return dynamo.Snapshot{}, fmt.Errorf("sim: step in phase %s", r.phase)
	}

	vals := make([]float64, len(r.plan.Vars))
	if err := r.eval.evaluate(vals, r.current, r.t); err != nil {
		return dynamo.Snapshot{}, r.fail(err)
	}
	snap := dynamo.NewSnapshot(r.plan.Names, r.plan.Index, vals, r.t)

	if r.Done() {
		r.phase = PhaseCompleted
		return snap, nil
	}

	// all element inputs come from the same pre-step snapshot
	e := &env{plan: r.plan, vals: vals, t: r.t}
	inputs := make([]float64, len(r.stateful))
	for k, i := range r.stateful {
		input, err := expr.Eval(r.plan.Vars[i].Equation, e)
		if err != nil {
			return snap, r.fail(&dynamo.NumericDomainError{
				Variable: r.plan.Vars[i].Var.Name, Time: r.t, Reason: err.Error(),
			})
		}
		inputs[k] = input
	}
	for k, i := range r.stateful {
		r.elements[i].Update(inputs[k], r.t, r.cfg.Dt)
	}
	for _, i := range r.stateful {
		v := r.elements[i].Current()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return snap, r.fail(&dynamo.NumericDomainError{
				Variable: r.plan.Vars[i].Var.Name, Time: r.t, Reason: "non-finite state",
			})
		}
	}

	r.stepIdx++
	// recompute rather than accumulate, for reproducible float behavior
	r.t = r.cfg.StartTime + float64(r.stepIdx)*r.cfg.Dt
	r.phase = PhaseRunning
	return snap, nil
}

// Run drives the step loop from the start time to the end time, recording a
// snapshot at every reporting point. On a numeric failure the run halts and
// the snapshots recorded so far are returned alongside the error. The
// context is checked once per step; cancellation also preserves partial
// results.
func (r *Runtime) Run(ctx context.Context) (*dynamo.Result, error) {
	if r.phase == PhaseUninitialized {
		if err := r.Init(); err != nil {
			if r.result == nil {
				r.result = &dynamo.Result{Names: r.plan.Names, Err: err}
			}
			return r.result, err
		}
	}
	if r.phase != PhaseInitialized {
		return r.result, fmt.Errorf("sim: run in phase %s", r.phase)
	}

	steps := r.cfg.Steps()
	every := r.cfg.ReportEvery()
	res := r.result

	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		snap, err := r.Step()
		if err != nil {
			return res, err
		}
		if i%every == 0 || i == steps {
			res.Times = append(res.Times, snap.Time())
			res.Snapshots = append(res.Snapshots, snap)
		}
		if i < steps {
			res.StepsTaken++
		}
	}
	return res, nil
}

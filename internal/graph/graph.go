// Package graph compiles a flat model into a dependency-ordered evaluation
// plan. It extracts references from every equation, classifies edges as
// instantaneous or stateful, and computes deterministic topological orders
// for both the per-step evaluation pass and the one-time init pass.
package graph

import (
	"fmt"

	"github.com/san-kum/sysdyn/internal/dynamo"
	"github.com/san-kum/sysdyn/internal/expr"
)

// EdgeClass distinguishes ordering edges from state reads.
type EdgeClass int

const (
	// Instantaneous edges require the producer to be evaluated before the
	// consumer within one instant.
	Instantaneous EdgeClass = iota
	// Stateful edges read a memory-carrying variable's stored value and
	// impose no ordering constraint. They are what make feedback loops
	// through stocks legal.
	Stateful
)

func (c EdgeClass) String() string {
	if c == Stateful {
		return "stateful"
	}
	return "instantaneous"
}

// Edge is one (consumer, producer) reference found in an equation.
type Edge struct {
	Consumer string
	Producer string
	Class    EdgeClass
}

// Compiled pairs a variable with its parsed expressions. Expressions that a
// kind does not use are nil.
type Compiled struct {
	Var         dynamo.Variable
	Equation    expr.Node
	Initial     expr.Node
	Duration    expr.Node
	AverageTime expr.Node
	Period      expr.Node
}

// Plan is the immutable compiled form of a model: parsed equations plus the
// evaluation orders. It is safe to share across concurrent runs.
type Plan struct {
	Model *dynamo.Model
	Vars  []Compiled
	// Order is the per-step evaluation order: a topological order of the
	// instantaneous-edge subgraph, tie-broken by declaration order.
	Order []int
	// InitOrder sequences the one-time init pass, where references to
	// stateful variables resolve to their initial values and therefore do
	// constrain ordering.
	InitOrder []int
	Edges     []Edge
	// Names and Index are shared with every Snapshot of every run.
	Names []string
	Index map[string]int
}

// Build compiles the model. It fails with an UnresolvedReferenceError when
// any equation references an unknown name, and with a CyclicDependencyError
// when the instantaneous subgraph (or the init-time graph) contains a
// cycle. Build is a pure function of the model.
func Build(model *dynamo.Model) (*Plan, error) {
	n := model.Len()
	p := &Plan{
		Model: model,
		Vars:  make([]Compiled, n),
		Names: model.Names(),
		Index: make(map[string]int, n),
	}
	for i, name := range p.Names {
		p.Index[name] = i
	}

	for i := 0; i < n; i++ {
		c, err := compile(model.At(i))
		if err != nil {
			return nil, err
		}
		p.Vars[i] = c
	}

	stepDeps := make([][]int, n) // consumer -> instantaneous producers
	initDeps := make([][]int, n) // consumer -> init-time producers
	for i := range p.Vars {
		if err := p.collectEdges(i, stepDeps, initDeps); err != nil {
			return nil, err
		}
	}

	order, err := topoSort(p.Names, stepDeps)
	if err != nil {
		return nil, err
	}
	p.Order = order

	initOrder, err := topoSort(p.Names, initDeps)
	if err != nil {
		return nil, err
	}
	p.InitOrder = initOrder

	return p, nil
}

func compile(v dynamo.Variable) (Compiled, error) {
	c := Compiled{Var: v}
	parse := func(field, src string, required bool) (expr.Node, error) {
		if src == "" {
			if required {
				return nil, fmt.Errorf("sysdyn: %s %q: missing %s", v.Kind, v.Name, field)
			}
			return nil, nil
		}
		node, err := expr.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("sysdyn: %s %q: %w", v.Kind, v.Name, err)
		}
		return node, nil
	}

	var err error
	switch v.Kind {
	case dynamo.KindLookup:
		if v.Equation != "" {
			return c, fmt.Errorf("sysdyn: lookup %q: a lookup is defined by breakpoints, not an equation", v.Name)
		}
		return c, nil
	case dynamo.KindStock:
		if c.Equation, err = parse("net flow equation", v.Equation, true); err != nil {
			return c, err
		}
		c.Initial, err = parse("initial value", v.Initial, true)
		return c, err
	case dynamo.KindDelay:
		if c.Equation, err = parse("input equation", v.Equation, true); err != nil {
			return c, err
		}
		if c.Duration, err = parse("duration", v.Duration, true); err != nil {
			return c, err
		}
		c.Initial, err = parse("initial value", v.Initial, false)
		return c, err
	case dynamo.KindSmooth, dynamo.KindTrend:
		if c.Equation, err = parse("input equation", v.Equation, true); err != nil {
			return c, err
		}
		if c.AverageTime, err = parse("averaging time", v.AverageTime, true); err != nil {
			return c, err
		}
		c.Initial, err = parse("initial value", v.Initial, false)
		return c, err
	case dynamo.KindSample:
		if c.Equation, err = parse("input equation", v.Equation, true); err != nil {
			return c, err
		}
		if c.Period, err = parse("period", v.Period, true); err != nil {
			return c, err
		}
		c.Initial, err = parse("initial value", v.Initial, false)
		return c, err
	default: // constant, auxiliary, flow, initial
		c.Equation, err = parse("equation", v.Equation, true)
		return c, err
	}
}

// collectEdges resolves variable i's references and records its dependency
// edges plus per-graph constraint lists.
func (p *Plan) collectEdges(i int, stepDeps, initDeps [][]int) error {
	c := p.Vars[i]
	name := c.Var.Name

	resolve := func(node expr.Node) ([]int, error) {
		if node == nil {
			return nil, nil
		}
		refs := expr.References(node)
		idxs := make([]int, 0, len(refs))
		for _, ref := range refs {
			j, ok := p.Index[ref]
			if !ok {
				return nil, &dynamo.UnresolvedReferenceError{Variable: name, Missing: ref}
			}
			idxs = append(idxs, j)
		}
		return idxs, nil
	}

	// Per-step references come from the defining equation. A stateful
	// producer's value is read from state, so those edges never constrain
	// the evaluation order.
	eqRefs, err := resolve(c.Equation)
	if err != nil {
		return err
	}
	for _, j := range eqRefs {
		class := Instantaneous
		if p.Vars[j].Var.Kind.Stateful() {
			class = Stateful
		}
		if class == Instantaneous && j == i {
			// no stored value to break the loop
			return &dynamo.CyclicDependencyError{Cycle: []string{name, name}}
		}
		p.Edges = append(p.Edges, Edge{Consumer: name, Producer: p.Names[j], Class: class})
		if class == Instantaneous {
			stepDeps[i] = append(stepDeps[i], j)
		}
	}

	// Init-time references: everything the one-time initialization of this
	// variable reads. Here stateful producers resolve to their own initial
	// values, so every edge constrains the init order.
	var initRefs []int
	if c.Var.Kind.Stateful() {
		if c.Initial != nil {
			initRefs, err = resolve(c.Initial)
		} else {
			// seeded from the input signal's value at start time
			initRefs = eqRefs
		}
		if err != nil {
			return err
		}
		if c.Var.Kind == dynamo.KindTrend && c.Initial != nil {
			// trend seeding reads the input as well as the initial trend
			initRefs = append(initRefs, eqRefs...)
		}
		for _, param := range []expr.Node{c.Duration, c.AverageTime, c.Period} {
			refs, err := resolve(param)
			if err != nil {
				return err
			}
			initRefs = append(initRefs, refs...)
		}
	} else {
		initRefs = eqRefs
	}
	initDeps[i] = append(initDeps[i], initRefs...)
	return nil
}

// topoSort orders nodes so every dependency precedes its consumer, breaking
// ties by declaration order so builds are reproducible. deps[i] lists the
// nodes that must precede node i.
func topoSort(names []string, deps [][]int) ([]int, error) {
	n := len(names)
	indeg := make([]int, n)
	dependents := make([][]int, n)
	for i, ds := range deps {
		for _, j := range ds {
			if j == i {
				continue // only stateful self-seeding reaches here; it reads the element's own start value
			}
			indeg[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	order := make([]int, 0, n)
	placed := make([]bool, n)
	for len(order) < n {
		pick := -1
		for i := 0; i < n; i++ {
			if !placed[i] && indeg[i] == 0 {
				pick = i
				break
			}
		}
		if pick < 0 {
			return nil, &dynamo.CyclicDependencyError{Cycle: findCycle(names, deps, placed)}
		}
		placed[pick] = true
		order = append(order, pick)
		for _, dep := range dependents[pick] {
			indeg[dep]--
		}
	}
	return order, nil
}

// findCycle walks dependency links among the unplaced nodes until one
// repeats, then returns the cycle's names with the first member repeated at
// the end.
func findCycle(names []string, deps [][]int, placed []bool) []string {
	start := -1
	for i := range placed {
		if !placed[i] {
			start = i
			break
		}
	}
	seen := make(map[int]int) // node -> position in path
	path := []int{}
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			cycle := make([]string, 0, len(path)-at+1)
			for _, idx := range path[at:] {
				cycle = append(cycle, names[idx])
			}
			cycle = append(cycle, names[cur])
			return cycle
		}
		seen[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, j := range deps[cur] {
			if !placed[j] && j != cur {
				next = j
				break
			}
		}
		if next < 0 {
			// dead end: restart from a node deeper in the tangle
			return []string{names[cur]}
		}
		cur = next
	}
}

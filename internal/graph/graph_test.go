package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

func mustModel(t *testing.T, vars []dynamo.Variable) *dynamo.Model {
	t.Helper()
	model, err := dynamo.NewModel(vars)
	require.NoError(t, err)
	return model
}

// position returns name's position in the order.
func position(t *testing.T, plan *Plan, order []int, name string) int {
	t.Helper()
	i, ok := plan.Index[name]
	require.True(t, ok, "unknown variable %s", name)
	for pos, idx := range order {
		if idx == i {
			return pos
		}
	}
	t.Fatalf("%s not in order", name)
	return -1
}

func TestBuildProducerPrecedesConsumer(t *testing.T) {
	// declared consumer-first to force the sort to reorder
	model := mustModel(t, []dynamo.Variable{
		{Name: "c", Kind: dynamo.KindAuxiliary, Equation: "b * 2"},
		{Name: "b", Kind: dynamo.KindAuxiliary, Equation: "a + 1"},
		{Name: "a", Kind: dynamo.KindConstant, Equation: "5"},
	})
	plan, err := Build(model)
	require.NoError(t, err)

	assert.Less(t, position(t, plan, plan.Order, "a"), position(t, plan, plan.Order, "b"))
	assert.Less(t, position(t, plan, plan.Order, "b"), position(t, plan, plan.Order, "c"))
}

func TestBuildDeclarationOrderTieBreak(t *testing.T) {
	// z, y, x are mutually independent; declaration order must hold
	model := mustModel(t, []dynamo.Variable{
		{Name: "z", Kind: dynamo.KindConstant, Equation: "1"},
		{Name: "y", Kind: dynamo.KindConstant, Equation: "2"},
		{Name: "x", Kind: dynamo.KindConstant, Equation: "3"},
	})
	plan, err := Build(model)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, plan.Order)

	// identical inputs give identical plans
	again, err := Build(model)
	require.NoError(t, err)
	assert.Equal(t, plan.Order, again.Order)
	assert.Equal(t, plan.InitOrder, again.InitOrder)
}

func TestBuildStockFeedbackIsLegal(t *testing.T) {
	// classic feedback: the flow reads the stock, the stock integrates the
	// flow; legal because the stock reference reads state
	model := mustModel(t, []dynamo.Variable{
		{Name: "population", Kind: dynamo.KindStock, Equation: "births", Initial: "100"},
		{Name: "births", Kind: dynamo.KindFlow, Equation: "0.02 * population"},
	})
	plan, err := Build(model)
	require.NoError(t, err)

	var stateful, instantaneous int
	for _, e := range plan.Edges {
		switch e.Class {
		case Stateful:
			stateful++
		case Instantaneous:
			instantaneous++
		}
	}
	assert.Equal(t, 1, stateful, "births -> population should be a state read")
	assert.Equal(t, 1, instantaneous, "population -> births should order the init pass only")
}

func TestBuildAuxiliaryCycle(t *testing.T) {
	model := mustModel(t, []dynamo.Variable{
		{Name: "a", Kind: dynamo.KindAuxiliary, Equation: "b + 1"},
		{Name: "b", Kind: dynamo.KindAuxiliary, Equation: "c + 1"},
		{Name: "c", Kind: dynamo.KindAuxiliary, Equation: "a + 1"},
	})
	_, err := Build(model)

	var cycErr *dynamo.CyclicDependencyError
	require.ErrorAs(t, err, &cycErr)
	assert.GreaterOrEqual(t, len(cycErr.Cycle), 3)
	assert.Contains(t, cycErr.Error(), "a")
	assert.Contains(t, cycErr.Error(), "->")
	// the cycle closes on its first member
	assert.Equal(t, cycErr.Cycle[0], cycErr.Cycle[len(cycErr.Cycle)-1])
}

func TestBuildUnresolvedReference(t *testing.T) {
	model := mustModel(t, []dynamo.Variable{
		{Name: "x", Kind: dynamo.KindAuxiliary, Equation: "ghost * 2"},
	})
	_, err := Build(model)

	var refErr *dynamo.UnresolvedReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "x", refErr.Variable)
	assert.Equal(t, "ghost", refErr.Missing)
}

func TestBuildInitOrderFollowsInitialRefs(t *testing.T) {
	// the stock's initial expression reads a constant; init order must put
	// the constant first even though the step order has no such edge
	model := mustModel(t, []dynamo.Variable{
		{Name: "inventory", Kind: dynamo.KindStock, Equation: "0 - shipments", Initial: "coverage * shipments"},
		{Name: "shipments", Kind: dynamo.KindFlow, Equation: "50"},
		{Name: "coverage", Kind: dynamo.KindConstant, Equation: "4"},
	})
	plan, err := Build(model)
	require.NoError(t, err)

	assert.Less(t, position(t, plan, plan.InitOrder, "coverage"), position(t, plan, plan.InitOrder, "inventory"))
	assert.Less(t, position(t, plan, plan.InitOrder, "shipments"), position(t, plan, plan.InitOrder, "inventory"))
}

func TestBuildInitCycleThroughInitials(t *testing.T) {
	// legal per step (both references read state), cyclic at init time
	model := mustModel(t, []dynamo.Variable{
		{Name: "a", Kind: dynamo.KindStock, Equation: "0", Initial: "b"},
		{Name: "b", Kind: dynamo.KindStock, Equation: "0", Initial: "a"},
	})
	_, err := Build(model)

	var cycErr *dynamo.CyclicDependencyError
	require.ErrorAs(t, err, &cycErr)
}

func TestBuildMissingRequiredFields(t *testing.T) {
	cases := []dynamo.Variable{
		{Name: "s", Kind: dynamo.KindStock, Equation: "1"},                      // no initial
		{Name: "d", Kind: dynamo.KindDelay, Equation: "1"},                      // no duration
		{Name: "m", Kind: dynamo.KindSmooth, Equation: "1"},                     // no averaging time
		{Name: "p", Kind: dynamo.KindSample, Equation: "1"},                     // no period
		{Name: "f", Kind: dynamo.KindFlow},                                      // no equation
		{Name: "l", Kind: dynamo.KindLookup, Equation: "1", Points: dynamo.Table{{X: 0, Y: 0}, {X: 1, Y: 1}}}, // equation on a lookup
	}
	for _, v := range cases {
		model := mustModel(t, []dynamo.Variable{v})
		_, err := Build(model)
		assert.Error(t, err, "variable %s", v.Name)
	}
}

func TestBuildDelayParameterRefsOrderInit(t *testing.T) {
	model := mustModel(t, []dynamo.Variable{
		{Name: "arrivals", Kind: dynamo.KindDelay, Equation: "orders", Duration: "lead_time"},
		{Name: "orders", Kind: dynamo.KindFlow, Equation: "10"},
		{Name: "lead_time", Kind: dynamo.KindConstant, Equation: "3"},
	})
	plan, err := Build(model)
	require.NoError(t, err)
	assert.Less(t, position(t, plan, plan.InitOrder, "lead_time"), position(t, plan, plan.InitOrder, "arrivals"))
}

func TestBuildSelfReferenceIsLegalForStock(t *testing.T) {
	model := mustModel(t, []dynamo.Variable{
		{Name: "balance", Kind: dynamo.KindStock, Equation: "0.05 * balance", Initial: "1000"},
	})
	plan, err := Build(model)
	require.NoError(t, err)
	assert.Len(t, plan.Order, 1)
}

func TestBuildSelfReferenceIsCyclicForAuxiliary(t *testing.T) {
	// no state breaks the loop, so this is a one-node cycle
	model := mustModel(t, []dynamo.Variable{
		{Name: "x", Kind: dynamo.KindAuxiliary, Equation: "x + 1"},
	})
	_, err := Build(model)

	var cycErr *dynamo.CyclicDependencyError
	require.ErrorAs(t, err, &cycErr)
	assert.Equal(t, []string{"x", "x"}, cycErr.Cycle)
}

func TestBuildBadEquationSyntax(t *testing.T) {
	model := mustModel(t, []dynamo.Variable{
		{Name: "x", Kind: dynamo.KindAuxiliary, Equation: "1 + "},
	})
	_, err := Build(model)
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*dynamo.CyclicDependencyError)))
}

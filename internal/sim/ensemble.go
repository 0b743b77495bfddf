package sim

import (
	"context"
	"sync"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

// Scenario is one named parameter variation within an ensemble.
type Scenario struct {
	Name      string
	Overrides map[string]string
}

// Ensemble runs one model under several scenarios in parallel. Each
// scenario gets its own runtime, so runs never share mutable state.
type Ensemble struct {
	model *dynamo.Model
	cfg   dynamo.Config
}

func NewEnsemble(model *dynamo.Model, cfg dynamo.Config) *Ensemble {
	return &Ensemble{model: model, cfg: cfg}
}

// Run executes every scenario concurrently and returns results in scenario
// order. Scenario overrides are applied on top of the base configuration's
// overrides. If any run fails, the first error is returned and the results
// slice still carries whatever each run produced.
func (e *Ensemble) Run(ctx context.Context, scenarios []Scenario) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(scenarios))
	errs := make([]error, len(scenarios))

	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc Scenario) {
			defer wg.Done()
			cfg := e.cfg
			cfg.Overrides = mergeOverrides(e.cfg.Overrides, sc.Overrides)
			rt, err := New(e.model, cfg)
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = rt.Run(ctx)
		}(i, sc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func mergeOverrides(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

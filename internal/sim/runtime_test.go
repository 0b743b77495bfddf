package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sysdyn/internal/dynamo"
	"github.com/san-kum/sysdyn/internal/sim"
)

func mustModel(vars []dynamo.Variable) *dynamo.Model {
	model, err := dynamo.NewModel(vars)
	Expect(err).NotTo(HaveOccurred())
	return model
}

func run(model *dynamo.Model, cfg dynamo.Config) *dynamo.Result {
	rt, err := sim.New(model, cfg)
	Expect(err).NotTo(HaveOccurred())
	result, err := rt.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return result
}

func series(result *dynamo.Result, name string) []float64 {
	s, ok := result.Series(name)
	Expect(ok).To(BeTrue(), "missing series %s", name)
	return s
}

var _ = Describe("Runtime", func() {
	Describe("stock integration", func() {
		It("is exact for a level-independent inflow", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "tank", Kind: dynamo.KindStock, Equation: "fill", Initial: "5"},
				{Name: "fill", Kind: dynamo.KindFlow, Equation: "2"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 10, Dt: 0.25, ReportInterval: 1}
			result := run(model, cfg)

			tank := series(result, "tank")
			for i, t := range result.Times {
				Expect(tank[i]).To(BeNumerically("~", 5+2*t, 1e-9), "t=%v", t)
			}
			Expect(result.StepsTaken).To(Equal(40))
		})

		It("evaluates a two-stock chain against the same pre-step snapshot", func() {
			// b integrates a, so b lags a by exactly one integration
			model := mustModel([]dynamo.Variable{
				{Name: "a", Kind: dynamo.KindStock, Equation: "1", Initial: "0"},
				{Name: "b", Kind: dynamo.KindStock, Equation: "a", Initial: "0"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 3, Dt: 1, ReportInterval: 1}
			result := run(model, cfg)

			Expect(series(result, "a")).To(Equal([]float64{0, 1, 2, 3}))
			Expect(series(result, "b")).To(Equal([]float64{0, 0, 1, 3}))
		})

		It("keeps auxiliaries consistent with state inside every snapshot", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "level", Kind: dynamo.KindStock, Equation: "0.1 * level", Initial: "1"},
				{Name: "doubled", Kind: dynamo.KindAuxiliary, Equation: "2 * level"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 5, Dt: 0.5, ReportInterval: 0.5}
			result := run(model, cfg)

			level := series(result, "level")
			doubled := series(result, "doubled")
			for i := range level {
				Expect(doubled[i]).To(Equal(2 * level[i]))
			}
		})
	})

	Describe("determinism", func() {
		It("produces bit-identical results across reruns", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "prey", Kind: dynamo.KindStock, Equation: "0.5 * prey - 0.01 * prey * predators", Initial: "100"},
				{Name: "predators", Kind: dynamo.KindStock, Equation: "0.002 * prey * predators - 0.4 * predators", Initial: "20"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 30, Dt: 0.02, ReportInterval: 1}

			first := run(model, cfg)
			second := run(model, cfg)

			Expect(second.Times).To(Equal(first.Times))
			for _, name := range first.Names {
				Expect(series(second, name)).To(Equal(series(first, name)))
			}
		})

		It("reports time on an exact grid regardless of dt rounding", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "x", Kind: dynamo.KindStock, Equation: "1", Initial: "0"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 1, Dt: 0.1, ReportInterval: 0.1}
			result := run(model, cfg)

			Expect(result.Times).To(HaveLen(11))
			Expect(result.Times[10]).To(Equal(1.0))
		})
	})

	Describe("initialization", func() {
		It("lets initial expressions read other initial values", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "target", Kind: dynamo.KindConstant, Equation: "400"},
				{Name: "inventory", Kind: dynamo.KindStock, Equation: "0", Initial: "target / 2"},
				{Name: "backlog", Kind: dynamo.KindStock, Equation: "0", Initial: "inventory / 4"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 1, Dt: 1, ReportInterval: 1}
			result := run(model, cfg)

			Expect(series(result, "inventory")[0]).To(Equal(200.0))
			Expect(series(result, "backlog")[0]).To(Equal(50.0))
		})

		It("seeds a delay at steady state from its input", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "orders", Kind: dynamo.KindFlow, Equation: "25"},
				{Name: "arrivals", Kind: dynamo.KindDelay, Equation: "orders", Duration: "3", Order: 3},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 10, Dt: 0.125, ReportInterval: 1}
			result := run(model, cfg)

			for _, v := range series(result, "arrivals") {
				Expect(v).To(BeNumerically("~", 25, 1e-9))
			}
		})

		It("rejects a non-positive delay duration", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "arrivals", Kind: dynamo.KindDelay, Equation: "1", Duration: "0"},
			})
			rt, err := sim.New(model, dynamo.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(errors.Is(rt.Init(), dynamo.ErrBadParameter)).To(BeTrue())
		})

		It("captures one-shot initial values", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "price", Kind: dynamo.KindStock, Equation: "2", Initial: "10"},
				{Name: "base_price", Kind: dynamo.KindInitial, Equation: "price"},
				{Name: "relative", Kind: dynamo.KindAuxiliary, Equation: "price / base_price"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 5, Dt: 1, ReportInterval: 1}
			result := run(model, cfg)

			base := series(result, "base_price")
			relative := series(result, "relative")
			for i := range base {
				Expect(base[i]).To(Equal(10.0))
			}
			Expect(relative[5]).To(Equal(2.0))
		})
	})

	Describe("lifecycle", func() {
		var rt *sim.Runtime

		BeforeEach(func() {
			model := mustModel([]dynamo.Variable{
				{Name: "x", Kind: dynamo.KindStock, Equation: "1", Initial: "0"},
			})
			var err error
			rt, err = sim.New(model, dynamo.Config{StartTime: 0, EndTime: 2, Dt: 1, ReportInterval: 1})
			Expect(err).NotTo(HaveOccurred())
		})

		It("moves through the phases in order", func() {
			Expect(rt.Phase()).To(Equal(sim.PhaseUninitialized))
			Expect(rt.Init()).To(Succeed())
			Expect(rt.Phase()).To(Equal(sim.PhaseInitialized))

			_, err := rt.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(rt.Phase()).To(Equal(sim.PhaseRunning))

			for !rt.Done() {
				_, err = rt.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			_, err = rt.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(rt.Phase()).To(Equal(sim.PhaseCompleted))
		})

		It("refuses to step before init or after completion", func() {
			_, err := rt.Step()
			Expect(err).To(HaveOccurred())

			Expect(rt.Init()).To(Succeed())
			for rt.Phase() != sim.PhaseCompleted {
				_, err = rt.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			_, err = rt.Step()
			Expect(err).To(HaveOccurred())
		})

		It("refuses double init", func() {
			Expect(rt.Init()).To(Succeed())
			Expect(rt.Init()).To(HaveOccurred())
		})
	})

	Describe("failure handling", func() {
		It("halts on a numeric error and keeps the snapshots so far", func() {
			// denominator hits zero at t=5
			model := mustModel([]dynamo.Variable{
				{Name: "x", Kind: dynamo.KindAuxiliary, Equation: "1 / (5 - time)"},
			})
			rt, err := sim.New(model, dynamo.Config{StartTime: 0, EndTime: 10, Dt: 1, ReportInterval: 1})
			Expect(err).NotTo(HaveOccurred())

			result, err := rt.Run(context.Background())
			Expect(err).To(HaveOccurred())

			var numErr *dynamo.NumericDomainError
			Expect(errors.As(err, &numErr)).To(BeTrue())
			Expect(numErr.Variable).To(Equal("x"))
			Expect(numErr.Time).To(Equal(5.0))

			Expect(rt.Phase()).To(Equal(sim.PhaseFailed))
			Expect(result.Err).To(Equal(err))
			Expect(result.Times).To(Equal([]float64{0, 1, 2, 3, 4}))
		})

		It("fails when a state variable becomes non-finite", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "x", Kind: dynamo.KindStock, Equation: "x * x", Initial: "2"},
			})
			rt, err := sim.New(model, dynamo.Config{StartTime: 0, EndTime: 400, Dt: 1, ReportInterval: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = rt.Run(context.Background())
			Expect(err).To(HaveOccurred())
			var numErr *dynamo.NumericDomainError
			Expect(errors.As(err, &numErr)).To(BeTrue())
			Expect(numErr.Variable).To(Equal("x"))
		})

		It("stops early when the context is cancelled", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "x", Kind: dynamo.KindStock, Equation: "1", Initial: "0"},
			})
			rt, err := sim.New(model, dynamo.Config{StartTime: 0, EndTime: 1000, Dt: 0.001, ReportInterval: 1})
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := rt.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.StepsTaken).To(BeZero())
		})
	})

	Describe("overrides", func() {
		base := []dynamo.Variable{
			{Name: "level", Kind: dynamo.KindStock, Equation: "rate", Initial: "0"},
			{Name: "rate", Kind: dynamo.KindConstant, Equation: "1"},
		}

		It("replaces an instantaneous equation for the whole run", func() {
			cfg := dynamo.Config{StartTime: 0, EndTime: 4, Dt: 1, ReportInterval: 1,
				Overrides: map[string]string{"rate": "3"}}
			result := run(mustModel(base), cfg)
			Expect(series(result, "level")[4]).To(Equal(12.0))
		})

		It("replaces a stock's initial value", func() {
			cfg := dynamo.Config{StartTime: 0, EndTime: 4, Dt: 1, ReportInterval: 1,
				Overrides: map[string]string{"level": "100"}}
			result := run(mustModel(base), cfg)
			Expect(series(result, "level")[0]).To(Equal(100.0))
			Expect(series(result, "level")[4]).To(Equal(104.0))
		})

		It("rejects unknown override names", func() {
			cfg := dynamo.Config{StartTime: 0, EndTime: 4, Dt: 1, ReportInterval: 1,
				Overrides: map[string]string{"ghost": "1"}}
			_, err := sim.New(mustModel(base), cfg)
			Expect(errors.Is(err, dynamo.ErrUnknownVariable)).To(BeTrue())
		})
	})

	Describe("lookups", func() {
		It("applies a lookup to an argument and reads it bare at current time", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "effect", Kind: dynamo.KindLookup, Points: dynamo.Table{{X: 0, Y: 1}, {X: 10, Y: 3}}},
				{Name: "demand", Kind: dynamo.KindConstant, Equation: "5"},
				{Name: "scaled", Kind: dynamo.KindAuxiliary, Equation: "effect(demand)"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 10, Dt: 1, ReportInterval: 1}
			result := run(model, cfg)

			Expect(series(result, "scaled")[0]).To(Equal(2.0))
			// a bare reference reads the table at simulation time
			effect := series(result, "effect")
			Expect(effect[0]).To(Equal(1.0))
			Expect(effect[10]).To(Equal(3.0))
		})
	})

	Describe("time-shaped inputs", func() {
		It("drives a smooth toward a stepped target", func() {
			model := mustModel([]dynamo.Variable{
				{Name: "target", Kind: dynamo.KindAuxiliary, Equation: "step(10, 2)"},
				{Name: "perceived", Kind: dynamo.KindSmooth, Equation: "target", AverageTime: "3"},
			})
			cfg := dynamo.Config{StartTime: 0, EndTime: 40, Dt: 0.125, ReportInterval: 1}
			result := run(model, cfg)

			perceived := series(result, "perceived")
			Expect(perceived[0]).To(BeZero())
			Expect(perceived[2]).To(BeZero(), "smoothing starts only once the step fires")
			Expect(perceived[40]).To(BeNumerically("~", 10, 0.01))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs scenarios in parallel and keeps results in order", func() {
		model := mustModel([]dynamo.Variable{
			{Name: "level", Kind: dynamo.KindStock, Equation: "rate", Initial: "0"},
			{Name: "rate", Kind: dynamo.KindConstant, Equation: "1"},
		})
		cfg := dynamo.Config{StartTime: 0, EndTime: 10, Dt: 1, ReportInterval: 1}

		scenarios := []sim.Scenario{
			{Name: "slow", Overrides: map[string]string{"rate": "1"}},
			{Name: "medium", Overrides: map[string]string{"rate": "2"}},
			{Name: "fast", Overrides: map[string]string{"rate": "5"}},
		}
		results, err := sim.NewEnsemble(model, cfg).Run(context.Background(), scenarios)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		finals := make([]float64, len(results))
		for i, res := range results {
			finals[i] = series(res, "level")[10]
		}
		Expect(finals).To(Equal([]float64{10, 20, 50}))
	})

	It("layers scenario overrides over base overrides", func() {
		model := mustModel([]dynamo.Variable{
			{Name: "level", Kind: dynamo.KindStock, Equation: "rate", Initial: "0"},
			{Name: "rate", Kind: dynamo.KindConstant, Equation: "1"},
		})
		cfg := dynamo.Config{StartTime: 0, EndTime: 2, Dt: 1, ReportInterval: 1,
			Overrides: map[string]string{"level": "100"}}

		results, err := sim.NewEnsemble(model, cfg).Run(context.Background(), []sim.Scenario{
			{Name: "boosted", Overrides: map[string]string{"rate": "4"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(series(results[0], "level")[0]).To(Equal(100.0))
		Expect(series(results[0], "level")[2]).To(Equal(108.0))
	})

	It("returns the first error alongside the other results", func() {
		model := mustModel([]dynamo.Variable{
			{Name: "x", Kind: dynamo.KindAuxiliary, Equation: "1 / divisor"},
			{Name: "divisor", Kind: dynamo.KindConstant, Equation: "1"},
		})
		cfg := dynamo.Config{StartTime: 0, EndTime: 2, Dt: 1, ReportInterval: 1}

		results, err := sim.NewEnsemble(model, cfg).Run(context.Background(), []sim.Scenario{
			{Name: "fine", Overrides: map[string]string{"divisor": "2"}},
			{Name: "broken", Overrides: map[string]string{"divisor": "0"}},
		})
		Expect(err).To(HaveOccurred())
		Expect(results[0]).NotTo(BeNil())
		Expect(series(results[0], "x")[0]).To(Equal(0.5))
	})
})

package expr

import (
	"fmt"
	"math"
	"sort"
)

type builtin struct {
	arity int
	fn    func(env Env, args []float64) (float64, error)
}

func pure(f func(args []float64) float64) func(Env, []float64) (float64, error) {
	return func(_ Env, args []float64) (float64, error) {
		return f(args), nil
	}
}

func timed(f func(t float64, args []float64) float64) func(Env, []float64) (float64, error) {
	return func(env Env, args []float64) (float64, error) {
		t, err := env.Ref(timeName)
		if err != nil {
			return 0, err
		}
		return f(t, args), nil
	}
}

// builtins is the System Dynamics function set, scalar form.
var builtins = map[string]builtin{
	"abs":   {1, pure(func(a []float64) float64 { return math.Abs(a[0]) })},
	"min":   {2, pure(func(a []float64) float64 { return math.Min(a[0], a[1]) })},
	"max":   {2, pure(func(a []float64) float64 { return math.Max(a[0], a[1]) })},
	"exp":   {1, pure(func(a []float64) float64 { return math.Exp(a[0]) })},
	"sin":   {1, pure(func(a []float64) float64 { return math.Sin(a[0]) })},
	"cos":   {1, pure(func(a []float64) float64 { return math.Cos(a[0]) })},
	"tan":   {1, pure(func(a []float64) float64 { return math.Tan(a[0]) })},
	"floor": {1, pure(func(a []float64) float64 { return math.Floor(a[0]) })},
	"int":   {1, pure(func(a []float64) float64 { return math.Trunc(a[0]) })},
	"pow":   {2, pure(func(a []float64) float64 { return math.Pow(a[0], a[1]) })},

	"sqrt": {1, func(_ Env, a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, fmt.Errorf("%w: sqrt of %v", ErrDomain, a[0])
		}
		return math.Sqrt(a[0]), nil
	}},
	"ln": {1, func(_ Env, a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, fmt.Errorf("%w: ln of %v", ErrDomain, a[0])
		}
		return math.Log(a[0]), nil
	}},
	"log10": {1, func(_ Env, a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, fmt.Errorf("%w: log10 of %v", ErrDomain, a[0])
		}
		return math.Log10(a[0]), nil
	}},
	"modulo": {2, func(_ Env, a []float64) (float64, error) {
		if a[1] == 0 {
			return 0, ErrDivideByZero
		}
		return math.Mod(a[0], a[1]), nil
	}},

	// branch selection happens in evalCall so the unselected branch is
	// never evaluated
	"if_then_else": {3, nil},

	// Time-shaped test inputs, Vensim semantics.
	"step": {2, timed(func(t float64, a []float64) float64 {
		if t >= a[1] {
			return a[0]
		}
		return 0
	})},
	"ramp": {3, timed(func(t float64, a []float64) float64 {
		slope, start, end := a[0], a[1], a[2]
		switch {
		case t <= start:
			return 0
		case t >= end:
			return slope * (end - start)
		}
		return slope * (t - start)
	})},
	"pulse": {2, timed(func(t float64, a []float64) float64 {
		start, width := a[0], a[1]
		if t >= start && t < start+width {
			return 1
		}
		return 0
	})},
	"pulse_train": {4, timed(func(t float64, a []float64) float64 {
		start, width, interval, end := a[0], a[1], a[2], a[3]
		if t < start || t > end || interval <= 0 {
			return 0
		}
		offset := math.Mod(t-start, interval)
		if offset < width {
			return 1
		}
		return 0
	})},
}

// IsBuiltin reports whether name is a built-in function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Builtins returns the sorted built-in function names.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package expr

import (
	"errors"
	"fmt"
	"math"
)

const timeName = "time"

// Evaluation errors. The simulation runtime wraps these with the offending
// variable and time.
var (
	// ErrDivideByZero indicates a computed zero denominator.
	ErrDivideByZero = errors.New("expr: division by zero")

	// ErrDomain indicates an argument outside a function's domain.
	ErrDomain = errors.New("expr: argument out of domain")

	// ErrUnknownFunction indicates a call to a name that is neither a
	// builtin nor a lookup variable.
	ErrUnknownFunction = errors.New("expr: unknown function")

	// ErrArity indicates a call with the wrong number of arguments.
	ErrArity = errors.New("expr: wrong number of arguments")
)

// Env resolves references and lookup applications during evaluation. The
// reserved name "time" must resolve to the current simulation time.
type Env interface {
	// Ref returns the named variable's value at the current instant.
	Ref(name string) (float64, error)
	// Apply evaluates the named lookup table at x.
	Apply(name string, x float64) (float64, error)
}

// Eval interprets the tree against env.
func Eval(n Node, env Env) (float64, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil

	case *Ref:
		return env.Ref(n.Name)

	case *Unary:
		x, err := Eval(n.X, env)
		if err != nil {
			return 0, err
		}
		if n.Op == "not" {
			return boolVal(x == 0), nil
		}
		return -x, nil

	case *Binary:
		return evalBinary(n, env)

	case *Call:
		return evalCall(n, env)
	}
	return 0, fmt.Errorf("expr: unknown node %T", n)
}

func evalBinary(n *Binary, env Env) (float64, error) {
	x, err := Eval(n.X, env)
	if err != nil {
		return 0, err
	}
	// short-circuit logic operators
	switch n.Op {
	case "and":
		if x == 0 {
			return 0, nil
		}
		y, err := Eval(n.Y, env)
		if err != nil {
			return 0, err
		}
		return boolVal(y != 0), nil
	case "or":
		if x != 0 {
			return 1, nil
		}
		y, err := Eval(n.Y, env)
		if err != nil {
			return 0, err
		}
		return boolVal(y != 0), nil
	}

	y, err := Eval(n.Y, env)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return x / y, nil
	case "^":
		return math.Pow(x, y), nil
	case "=":
		return boolVal(x == y), nil
	case "<>":
		return boolVal(x != y), nil
	case "<":
		return boolVal(x < y), nil
	case "<=":
		return boolVal(x <= y), nil
	case ">":
		return boolVal(x > y), nil
	case ">=":
		return boolVal(x >= y), nil
	}
	return 0, fmt.Errorf("expr: unknown operator %q", n.Op)
}

func evalCall(n *Call, env Env) (float64, error) {
	b, ok := builtins[n.Name]
	if !ok {
		// not a builtin: a lookup-table application
		if len(n.Args) != 1 {
			return 0, fmt.Errorf("%w: lookup %q takes 1 argument, got %d", ErrArity, n.Name, len(n.Args))
		}
		x, err := Eval(n.Args[0], env)
		if err != nil {
			return 0, err
		}
		return env.Apply(n.Name, x)
	}
	if len(n.Args) != b.arity {
		return 0, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArity, n.Name, b.arity, len(n.Args))
	}
	// only the selected branch is evaluated, so the condition can guard an
	// expression that would fault
	if n.Name == "if_then_else" {
		cond, err := Eval(n.Args[0], env)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return Eval(n.Args[1], env)
		}
		return Eval(n.Args[2], env)
	}
	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return b.fn(env, args)
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

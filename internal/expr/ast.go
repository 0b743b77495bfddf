package expr

import (
	"sort"
	"strconv"
	"strings"
)

// Node is one node of a parsed equation tree.
type Node interface {
	// String renders the node back to canonical equation source.
	String() string
}

// Number is a literal value.
type Number struct {
	Value float64
}

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Ref references another variable by name, or the reserved name "time".
type Ref struct {
	Name string
}

func (r *Ref) String() string { return r.Name }

// Unary applies a prefix operator ("-" or "not").
type Unary struct {
	Op string
	X  Node
}

func (u *Unary) String() string {
	if u.Op == "not" {
		return "not " + u.X.String()
	}
	return u.Op + u.X.String()
}

// Binary applies an infix operator.
type Binary struct {
	Op   string
	X, Y Node
}

func (b *Binary) String() string {
	return "(" + b.X.String() + " " + b.Op + " " + b.Y.String() + ")"
}

// Call applies a built-in function, or a lookup table when Name refers to a
// lookup variable.
type Call struct {
	Name string
	Args []Node
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// References returns the sorted set of variable names the tree refers to.
// Built-in function names and the reserved time reference are excluded;
// called names that are not builtins are lookup references and included.
func References(n Node) []string {
	set := make(map[string]struct{})
	collectRefs(n, set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectRefs(n Node, set map[string]struct{}) {
	switch n := n.(type) {
	case *Number:
	case *Ref:
		if n.Name != timeName {
			set[n.Name] = struct{}{}
		}
	case *Unary:
		collectRefs(n.X, set)
	case *Binary:
		collectRefs(n.X, set)
		collectRefs(n.Y, set)
	case *Call:
		if !IsBuiltin(n.Name) {
			set[n.Name] = struct{}{}
		}
		for _, a := range n.Args {
			collectRefs(a, set)
		}
	}
}

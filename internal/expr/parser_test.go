package expr

import (
	"reflect"
	"testing"
)

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"}, // right associative
		{"-a + b", "(-a + b)"},
		{"a - b - c", "((a - b) - c)"},
		{"a < b and c >= d", "((a < b) and (c >= d))"},
		{"not a or b", "(not a or b)"},
		{"a = b", "(a = b)"},
		{"a != b", "(a <> b)"},
	}
	for _, tt := range tests {
		node, err := Parse(tt.src)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.src, err)
			continue
		}
		if got := node.String(); got != tt.want {
			t.Errorf("Parse(%q): got %s, expected %s", tt.src, got, tt.want)
		}
	}
}

func TestParseNumbers(t *testing.T) {
	for _, src := range []string{"42", "3.14", "1e6", "2.5e-3", "0.5E+2"} {
		if _, err := Parse(src); err != nil {
			t.Errorf("Parse(%q): %v", src, err)
		}
	}
}

func TestParseLowercasesIdentifiers(t *testing.T) {
	node, err := Parse("Birth_Rate * POPULATION")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	refs := References(node)
	want := []string{"birth_rate", "population"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("References: got %v, expected %v", refs, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(1 + 2", "1 2", "min(1,)", "* 3", "1 @ 2"} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q): expected error", src)
		}
	}
}

func TestReferences(t *testing.T) {
	node, err := Parse("if_then_else(time > 5, rate_a, rate_b) + rate_a + effect(demand)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	refs := References(node)
	// builtins and time excluded, non-builtin calls count as lookup refs,
	// duplicates collapse, output sorted
	want := []string{"demand", "effect", "rate_a", "rate_b"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("References: got %v, expected %v", refs, want)
	}
}

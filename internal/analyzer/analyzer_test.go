package analyzer

import (
	"sort"
	"testing"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/parser"
)

func freeVarNames(n ast.Node) []string {
	fv := n.FreeVars()
	names := make([]string, 0, len(fv))
	for name := range fv {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustParse(t *testing.T, source string) ast.Node {
	t.Helper()
	n, err := parser.ParseFile("test.lumen", source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return n
}

func TestAnalyze_FreeVars(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name:     "literal has no free vars",
			source:   "1 + 2",
			expected: []string{},
		},
		{
			name:     "bare variable reference is free",
			source:   "x",
			expected: []string{"x"},
		},
		{
			name:     "local binding removes bound name",
			source:   "local x = 1; x + y",
			expected: []string{"y"},
		},
		{
			name:     "function params are bound, not free",
			source:   "function(x) x + y",
			expected: []string{"y"},
		},
		{
			name:     "function default value can reference outer free var",
			source:   "function(x=z) x",
			expected: []string{"z"},
		},
		{
			name:     "object comprehension binds its iteration variable",
			source:   "{ [k]: v for k in arr }",
			expected: []string{"arr", "v"},
		},
		{
			name:     "if with no else still sees only cond/then free vars",
			source:   "if a then b",
			expected: []string{"a", "b"},
		},
		{
			name:     "nested locals shadow correctly",
			source:   "local x = 1; local y = x; y + z",
			expected: []string{"z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.source)
			analyzed, err := Analyze(root)
			if err != nil {
				t.Fatalf("Analyze error: %v", err)
			}
			got := freeVarNames(analyzed)
			if len(got) != len(tt.expected) {
				t.Fatalf("free vars = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("free vars = %v, want %v", got, tt.expected)
				}
			}
		})
	}
}

func TestAnalyze_IfWithoutElseDoesNotPanic(t *testing.T) {
	root := &ast.If{
		Cond: &ast.LiteralBoolean{Value: true},
		Then: &ast.LiteralNumber{Value: 1},
	}
	analyzed, err := Analyze(root)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	ifNode := analyzed.(*ast.If)
	if ifNode.Else != nil {
		t.Fatalf("expected Else to remain nil, got %#v", ifNode.Else)
	}
}

func TestAnalyze_DesugarsEquality(t *testing.T) {
	root := mustParse(t, "1 == 2")
	analyzed, err := Analyze(root)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	apply, ok := analyzed.(*ast.Apply)
	if !ok {
		t.Fatalf("expected *ast.Apply after desugaring, got %T", analyzed)
	}
	ref, ok := apply.Target.(*ast.BuiltinRef)
	if !ok {
		t.Fatalf("expected *ast.BuiltinRef target, got %T", apply.Target)
	}
	if ref.Name != "equals" {
		t.Fatalf("expected builtin %q, got %q", "equals", ref.Name)
	}
	if len(apply.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(apply.Args))
	}
}

func TestAnalyze_DesugarsInequalityAsNegatedEquality(t *testing.T) {
	root := mustParse(t, "1 != 2")
	analyzed, err := Analyze(root)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	un, ok := analyzed.(*ast.Unary)
	if !ok {
		t.Fatalf("expected *ast.Unary after desugaring, got %T", analyzed)
	}
	if un.Op != ast.OpNot {
		t.Fatalf("expected OpNot, got %v", un.Op)
	}
	if _, ok := un.Expr.(*ast.Apply); !ok {
		t.Fatalf("expected negated expr to be *ast.Apply, got %T", un.Expr)
	}
}

func TestAnalyze_RejectsUnknownNodeType(t *testing.T) {
	type unknownNode struct{ ast.Base }
	_, err := Analyze(&unknownNode{})
	if err == nil {
		t.Fatal("expected error for unhandled node type")
	}
}

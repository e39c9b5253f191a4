package parser

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumen/internal/ast"
)

func mustParseFile(t *testing.T, source string) ast.Node {
	t.Helper()
	node, err := ParseFile("<test>", source)
	if err != nil {
		t.Fatalf("ParseFile(%q): %v", source, err)
	}
	return node
}

func TestParseFile_Literals(t *testing.T) {
	if _, ok := mustParseFile(t, "null").(*ast.LiteralNull); !ok {
		t.Error("expected *ast.LiteralNull")
	}
	b, ok := mustParseFile(t, "true").(*ast.LiteralBoolean)
	if !ok || !b.Value {
		t.Error("expected *ast.LiteralBoolean{Value: true}")
	}
	n, ok := mustParseFile(t, "3.5").(*ast.LiteralNumber)
	if !ok || n.Value != 3.5 {
		t.Errorf("expected *ast.LiteralNumber{Value: 3.5}, got %#v", mustParseFile(t, "3.5"))
	}
	s, ok := mustParseFile(t, `"hi"`).(*ast.LiteralString)
	if !ok || s.Value != "hi" {
		t.Error("expected *ast.LiteralString{Value: \"hi\"}")
	}
}

func TestParseFile_BinaryPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3): the outer node is '+', whose
	// right child is the '*' node.
	node := mustParseFile(t, "1 + 2 * 3")
	bin, ok := node.(*ast.Binary)
	if !ok {
		t.Fatalf("expected *ast.Binary, got %T", node)
	}
	if bin.Op != ast.OpPlus {
		t.Errorf("outer op = %v, want OpPlus", bin.Op)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != ast.OpMul {
		t.Errorf("right operand = %#v, want a '*' Binary", bin.Right)
	}
}

func TestParseFile_EqualityIsSentinelEncodedOnBinary(t *testing.T) {
	// The parser itself does not desugar `==`/`!=`; it leaves them as
	// sentinel-tagged ast.Binary nodes for internal/analyzer to rewrite
	// into calls to the `equals` builtin.
	node := mustParseFile(t, "1 == 2")
	if _, ok := node.(*ast.Binary); !ok {
		t.Fatalf("expected *ast.Binary for '==', got %T", node)
	}
}

func TestParseFile_UnaryOperators(t *testing.T) {
	tests := []struct {
		source string
		op     ast.UnaryOp
	}{
		{"!true", ast.OpNot},
		{"-1", ast.OpNeg},
		{"+1", ast.OpPos},
		{"~1", ast.OpBitNot},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			node := mustParseFile(t, tt.source)
			u, ok := node.(*ast.Unary)
			if !ok {
				t.Fatalf("expected *ast.Unary, got %T", node)
			}
			if u.Op != tt.op {
				t.Errorf("op = %v, want %v", u.Op, tt.op)
			}
		})
	}
}

func TestParseFile_IfWithElse(t *testing.T) {
	node := mustParseFile(t, "if true then 1 else 2")
	ifNode, ok := node.(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", node)
	}
	if ifNode.Else == nil {
		t.Error("expected non-nil Else for an explicit else clause")
	}
}

func TestParseFile_IfWithoutElse(t *testing.T) {
	node := mustParseFile(t, "if true then 1")
	ifNode, ok := node.(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", node)
	}
	if _, ok := ifNode.Else.(*ast.LiteralNull); !ok {
		t.Errorf("expected parser to default a missing else to LiteralNull, got %#v", ifNode.Else)
	}
}

func TestParseFile_LocalWithMultipleBindings(t *testing.T) {
	node := mustParseFile(t, "local x = 1, y = 2; x + y")
	local, ok := node.(*ast.Local)
	if !ok {
		t.Fatalf("expected *ast.Local, got %T", node)
	}
	if len(local.Binds) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(local.Binds))
	}
	if local.Binds[0].Name != "x" || local.Binds[1].Name != "y" {
		t.Errorf("unexpected binding names: %+v", local.Binds)
	}
}

func TestParseFile_FunctionWithDefault(t *testing.T) {
	node := mustParseFile(t, "function(x, y=2) x + y")
	fn, ok := node.(*ast.Function)
	if !ok {
		t.Fatalf("expected *ast.Function, got %T", node)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Default != nil {
		t.Error("expected first param to have no default")
	}
	if fn.Params[1].Default == nil {
		t.Error("expected second param to have a default expression")
	}
}

func TestParseFile_ObjectFieldsAndVisibility(t *testing.T) {
	node := mustParseFile(t, `{ visible: 1, hidden:: 2 }`)
	obj, ok := node.(*ast.DesugaredObject)
	if !ok {
		t.Fatalf("expected *ast.DesugaredObject, got %T", node)
	}
	if len(obj.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(obj.Fields))
	}
	if obj.Fields[0].Hide != ast.HideVisible {
		t.Errorf("field 0 hide = %v, want HideVisible", obj.Fields[0].Hide)
	}
	if obj.Fields[1].Hide != ast.HideHidden {
		t.Errorf("field 1 hide = %v, want HideHidden", obj.Fields[1].Hide)
	}
}

func TestParseFile_ObjectComprehension(t *testing.T) {
	node := mustParseFile(t, `{ [k]: k for k in arr }`)
	comp, ok := node.(*ast.ObjectComprehensionSimple)
	if !ok {
		t.Fatalf("expected *ast.ObjectComprehensionSimple, got %T", node)
	}
	if comp.IterVar != "k" {
		t.Errorf("IterVar = %q, want %q", comp.IterVar, "k")
	}
}

func TestParseFile_ApplyWithNamedAndPositionalArgs(t *testing.T) {
	node := mustParseFile(t, `f(1, name=2)`)
	apply, ok := node.(*ast.Apply)
	if !ok {
		t.Fatalf("expected *ast.Apply, got %T", node)
	}
	if len(apply.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(apply.Args))
	}
	if apply.Args[0].Name != "" {
		t.Errorf("expected first arg positional, got name %q", apply.Args[0].Name)
	}
	if apply.Args[1].Name != "name" {
		t.Errorf("expected second arg named %q, got %q", "name", apply.Args[1].Name)
	}
}

func TestParseFile_SuperIndex(t *testing.T) {
	node := mustParseFile(t, `super["field"]`)
	if _, ok := node.(*ast.SuperIndex); !ok {
		t.Fatalf("expected *ast.SuperIndex, got %T", node)
	}
}

func TestParseFile_IndexAndDotSugar(t *testing.T) {
	node := mustParseFile(t, `obj.field`)
	idx, ok := node.(*ast.Index)
	if !ok {
		t.Fatalf("expected *ast.Index, got %T", node)
	}
	name, ok := idx.Index.(*ast.LiteralString)
	if !ok || name.Value != "field" {
		t.Errorf("expected dot sugar to index by string literal \"field\", got %#v", idx.Index)
	}
}

func TestParseFile_ImportAndImportStr(t *testing.T) {
	imp, ok := mustParseFile(t, `import "a.lumen"`).(*ast.Import)
	if !ok || imp.Path != "a.lumen" {
		t.Errorf("expected *ast.Import{Path: \"a.lumen\"}, got %#v", mustParseFile(t, `import "a.lumen"`))
	}
	importStr, ok := mustParseFile(t, `importstr "a.txt"`).(*ast.ImportStr)
	if !ok || importStr.Path != "a.txt" {
		t.Errorf("expected *ast.ImportStr{Path: \"a.txt\"}, got %#v", mustParseFile(t, `importstr "a.txt"`))
	}
}

func TestParseFile_ErrorExpr(t *testing.T) {
	node := mustParseFile(t, `error "boom"`)
	if _, ok := node.(*ast.Error); !ok {
		t.Fatalf("expected *ast.Error, got %T", node)
	}
}

func TestParseFile_TailstrictApply(t *testing.T) {
	node := mustParseFile(t, `f(1) tailstrict`)
	apply, ok := node.(*ast.Apply)
	if !ok {
		t.Fatalf("expected *ast.Apply, got %T", node)
	}
	if !apply.TailStrict {
		t.Error("expected TailStrict to be true")
	}
}

func TestParseFile_TrailingTokensError(t *testing.T) {
	if _, err := ParseFile("<test>", "1 2"); err == nil {
		t.Fatal("expected error for trailing unparsed tokens")
	}
}

func TestParseFile_SyntaxErrorIncludesPosition(t *testing.T) {
	_, err := ParseFile("myfile.lumen", "local x = ;")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "1:11") {
		t.Errorf("error %q does not contain position 1:11", err.Error())
	}
}

package lumen

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumen/internal/eval"
)

func evalOK(t *testing.T, source string) string {
	t.Helper()
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet(source, ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet(%q): %v", source, err)
	}
	return out
}

func TestEvaluateSnippet_Literals(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"null", "null", "null\n"},
		{"true", "true", "true\n"},
		{"integer arithmetic", "1 + 2 * 3", "7\n"},
		{"string concatenation", "\"a\" + \"b\"", "\"ab\"\n"},
		{"string plus number coerces", "\"n=\" + 3", "\"n=3\"\n"},
		{"empty array spacing", "[]", "[ ]\n"},
		{"empty object spacing", "{}", "{ }\n"},
		{"if without else defaults to null", "if false then 1", "null\n"},
		{"if with else", "if 1 < 2 then \"yes\" else \"no\"", "\"yes\"\n"},
		{"short-circuit and", "false && (1/0 == 1)", "false\n"},
		{"short-circuit or", "true || (1/0 == 1)", "true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalOK(t, tt.source)
			if got != tt.expected {
				t.Errorf("EvaluateSnippet(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestEvaluateSnippet_EqualityDesugars(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"1 == 1", "true\n"},
		{"1 == 2", "false\n"},
		{"1 != 2", "true\n"},
		{"[1, 2] == [1, 2]", "true\n"},
		{"[1, 2] == [1, 3]", "false\n"},
		{"{a: 1} == {a: 1}", "true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got := evalOK(t, tt.source)
			if got != tt.expected {
				t.Errorf("EvaluateSnippet(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestEvaluateSnippet_Builtins(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"pow(2, 10)", "1024\n"},
		{"length(\"hello\")", "5\n"},
		{"length([1, 2, 3])", "3\n"},
		{"type(1)", "\"number\"\n"},
		{"type(\"s\")", "\"string\"\n"},
		{"type([])", "\"array\"\n"},
		{"codepoint(\"A\")", "65\n"},
		{"char(65)", "\"A\"\n"},
		{"primitiveEquals(1, 1)", "true\n"},
		{"modulo(7, 3)", "1\n"},
		{"floor(1.9)", "1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got := evalOK(t, tt.source)
			if got != tt.expected {
				t.Errorf("EvaluateSnippet(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestEvaluateSnippet_MakeArrayAndFilter(t *testing.T) {
	got := evalOK(t, "makeArray(5, function(i) i * i)")
	want := "[\n   0,\n   1,\n   4,\n   9,\n   16\n]\n"
	if got != want {
		t.Errorf("makeArray result = %q, want %q", got, want)
	}

	got = evalOK(t, "filter(function(x) x > 2, [1, 2, 3, 4])")
	want = "[\n   3,\n   4\n]\n"
	if got != want {
		t.Errorf("filter result = %q, want %q", got, want)
	}
}

func TestEvaluateSnippet_ObjectOverrideSeenThroughSelf(t *testing.T) {
	source := `
local base = { greeting: "hello", who: "world", msg: self.greeting + " " + self.who };
local derived = base + { who: "lumen" };
derived.msg
`
	got := evalOK(t, source)
	if got != "\"hello lumen\"\n" {
		t.Errorf("got %q", got)
	}
}

func TestEvaluateSnippet_HiddenFieldsOmittedFromManifest(t *testing.T) {
	got := evalOK(t, "{ visible: 1, hidden:: 2 }")
	if got != "{\n   \"visible\": 1\n}\n" {
		t.Errorf("got %q", got)
	}
}

func TestEvaluateSnippet_LazyFieldNeverForced(t *testing.T) {
	// The `boom` field raises an error if forced; manifesting `kept` alone
	// must never force it (spec.md's laziness invariant).
	got := evalOK(t, `{ kept: 1, boom: error "should never run" }.kept`)
	if got != "1\n" {
		t.Errorf("got %q", got)
	}
}

func TestEvaluateSnippet_ObjectComprehension(t *testing.T) {
	got := evalOK(t, `{ [k]: k + k for k in ["a", "b"] }`)
	if got != "{\n   \"a\": \"aa\",\n   \"b\": \"bb\"\n}\n" {
		t.Errorf("got %q", got)
	}
}

func TestEvaluateSnippet_ExtVar(t *testing.T) {
	engine, err := New(WithExtVar("greeting", "hello"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet("extVar(\"greeting\")", ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	if out != "\"hello\"\n" {
		t.Errorf("got %q", out)
	}
}

func TestEvaluateSnippet_ExtCodeEvaluatesLazily(t *testing.T) {
	engine, err := New(WithExtCode("computed", "1 + 1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet("extVar(\"computed\")", ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	if out != "2\n" {
		t.Errorf("got %q", out)
	}
}

func TestEvaluateSnippet_UndefinedExtVarErrors(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	_, err = engine.EvaluateSnippet("extVar(\"missing\")", ModeRegular)
	if err == nil {
		t.Fatal("expected error for undefined external variable")
	}
}

func TestEvaluateSnippet_Native(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	engine.RegisterNative("double", []string{"x"}, func(args []eval.Value) (eval.Value, error) {
		return eval.Number(args[0].Num * 2), nil
	})
	out, err := engine.EvaluateSnippet(`native("double")(21)`, ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	if out != "42\n" {
		t.Errorf("got %q", out)
	}
}

func TestEvaluateSnippet_UnknownNativeErrors(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	if _, err := engine.EvaluateSnippet(`native("missing")`, ModeRegular); err == nil {
		t.Fatal("expected error for unregistered native function")
	}
}

func TestMultiManifest_WireFormat(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet(`{ a: 1, b: 2 }`, ModeMulti)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	parts := strings.Split(strings.TrimSuffix(out, "\x00\x00"), "\x00")
	if len(parts) != 4 {
		t.Fatalf("expected 4 NUL-delimited parts (2 records), got %d: %q", len(parts), parts)
	}
	if parts[0] != "a" || parts[1] != "1\n" {
		t.Errorf("first record = (%q, %q)", parts[0], parts[1])
	}
	if parts[2] != "b" || parts[3] != "2\n" {
		t.Errorf("second record = (%q, %q)", parts[2], parts[3])
	}
}

func TestStreamManifest_WireFormat(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet(`[1, 2, 3]`, ModeStream)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	parts := strings.Split(strings.TrimSuffix(out, "\x00\x00"), "\x00")
	if len(parts) != 3 {
		t.Fatalf("expected 3 NUL-delimited records, got %d: %q", len(parts), parts)
	}
	for i, want := range []string{"1\n", "2\n", "3\n"} {
		if parts[i] != want {
			t.Errorf("record %d = %q, want %q", i, parts[i], want)
		}
	}
}

func TestStringOutputMode_RequiresString(t *testing.T) {
	engine, err := New(WithStringOutput(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	if _, err := engine.EvaluateSnippet(`42`, ModeRegular); err == nil {
		t.Fatal("expected error: string_output mode requires a string")
	}
	out, err := engine.EvaluateSnippet(`"hi"`, ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	if out != "hi\n" {
		t.Errorf("got %q", out)
	}
}

func TestEvaluateSnippet_TLAApplication(t *testing.T) {
	engine, err := New(WithTLAVar("name", "lumen"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet(`function(name) "hi " + name`, ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	if out != "\"hi lumen\"\n" {
		t.Errorf("got %q", out)
	}
}

func TestEvaluateSnippet_TLADefaultUsedWhenUnset(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	out, err := engine.EvaluateSnippet(`function(name="default") "hi " + name`, ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet: %v", err)
	}
	if out != "\"hi default\"\n" {
		t.Errorf("got %q", out)
	}
}

func TestEvaluateSnippet_ManifestingFunctionErrors(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	if _, err := engine.EvaluateSnippet(`{ f: function(x) x }`, ModeRegular); err == nil {
		t.Fatal("expected error manifesting a function value")
	}
}

func TestEvaluateSnippet_ErrorPropagatesMessage(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	_, err = engine.EvaluateSnippet(`error "boom"`, ModeRegular)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not contain %q", err.Error(), "boom")
	}
}

func TestEvaluateSnippet_DivisionByZero(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	if _, err := engine.EvaluateSnippet(`1 / 0`, ModeRegular); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

// TestEvaluateSnippet_TailstrictRecursesWithoutGrowingTheCallStack pins
// down spec.md Testable Property 7: a self-recursive tailstrict call,
// passed a real (non-default) argument, must not grow max_stack. A
// max_stack far smaller than the recursion depth shows that a tailstrict
// call pushes no CallFrame. The body is an `if`, not a bare call, so each
// level still recurses through Eval on the Go stack.
func TestEvaluateSnippet_TailstrictRecursesWithoutGrowingTheCallStack(t *testing.T) {
	engine, err := New(WithMaxStack(50))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	source := `local sum(n, acc) = if n == 0 then acc else sum(n - 1, acc + n) tailstrict; sum(10000, 0)`
	out, err := engine.EvaluateSnippet(source, ModeRegular)
	if err != nil {
		t.Fatalf("EvaluateSnippet(tailstrict sum): %v", err)
	}
	if out != "50005000\n" {
		t.Errorf("EvaluateSnippet(tailstrict sum) = %q, want %q", out, "50005000\n")
	}
}

// TestEvaluateSnippet_NonTailstrictRecursionOverflowsMaxStack confirms
// the contrast: the same recursion depth without `tailstrict` does hit
// max_stack, so the prior test passes because tailstrict calls skip the
// CallFrame push and not for some other reason.
func TestEvaluateSnippet_NonTailstrictRecursionOverflowsMaxStack(t *testing.T) {
	engine, err := New(WithMaxStack(50))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()
	source := `local sum(n, acc) = if n == 0 then acc else sum(n - 1, acc + n); sum(10000, 0)`
	_, err = engine.EvaluateSnippet(source, ModeRegular)
	if err == nil {
		t.Fatal("expected a stack-overflow error without tailstrict")
	}
	if !strings.Contains(err.Error(), "Max stack frames exceeded") {
		t.Errorf("error = %q, want it to mention stack overflow", err.Error())
	}
}

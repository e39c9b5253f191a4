// Package builtins registers the language's standard-library functions
// into internal/eval's builtin registry (spec.md §4.G). It is imported
// for its side effect (init registers every function); callers do
//
//	import _ "github.com/lumenlang/lumen/internal/eval/builtins"
//
// Grounded on internal/interp/builtins/registry.go's Registry/FunctionInfo
// shape, adapted to case-sensitive lookup and the spec's uniform
// arity/type error message.
package builtins

import (
	"fmt"
	"math"

	"github.com/lumenlang/lumen/internal/eval"
)

func init() {
	eval.RegisterBuiltin("length", []string{"x"}, biLength)
	eval.RegisterBuiltin("type", []string{"x"}, biType)
	eval.RegisterBuiltin("makeArray", []string{"sz", "func"}, biMakeArray)
	eval.RegisterBuiltin("filter", []string{"func", "arr"}, biFilter)
	eval.RegisterBuiltin("objectHasEx", []string{"obj", "fname", "hidden"}, biObjectHasEx)
	eval.RegisterBuiltin("objectFieldsEx", []string{"obj", "hidden"}, biObjectFieldsEx)
	eval.RegisterBuiltin("codepoint", []string{"str"}, biCodepoint)
	eval.RegisterBuiltin("char", []string{"n"}, biChar)
	eval.RegisterBuiltin("modulo", []string{"a", "b"}, biModulo)
	eval.RegisterBuiltin("primitiveEquals", []string{"a", "b"}, biPrimitiveEquals)
	eval.RegisterBuiltin("equals", []string{"a", "b"}, biEquals)

	registerMathUnary("floor", math.Floor)
	registerMathUnary("ceil", math.Ceil)
	registerMathUnary("sqrt", math.Sqrt)
	registerMathUnary("sin", math.Sin)
	registerMathUnary("cos", math.Cos)
	registerMathUnary("tan", math.Tan)
	registerMathUnary("asin", math.Asin)
	registerMathUnary("acos", math.Acos)
	registerMathUnary("atan", math.Atan)
	registerMathUnary("log", math.Log)
	registerMathUnary("exp", math.Exp)

	eval.RegisterBuiltin("pow", []string{"x", "n"}, biPow)
	eval.RegisterBuiltin("mantissa", []string{"x"}, biMantissa)
	eval.RegisterBuiltin("exponent", []string{"x"}, biExponent)
}

// typeError renders the uniform arity/type-error shape spec.md §4.G
// requires: "Builtin function NAME expected (T1, ..., Tn) but got (U1, ..., Um)".
func typeError(name string, want []string, got []eval.Value) error {
	gotKinds := make([]string, len(got))
	for i, v := range got {
		gotKinds[i] = v.Kind.String()
	}
	return fmt.Errorf("Builtin function %s expected (%s) but got (%s)", name, joinStrings(want), joinStrings(gotKinds))
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func registerMathUnary(name string, fn func(float64) float64) {
	eval.RegisterBuiltin(name, []string{"x"}, func(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
		if args[0].Kind != eval.KindDouble {
			return eval.Value{}, typeError(name, []string{"number"}, args)
		}
		return ev.FiniteNumber(fn(args[0].Num))
	})
}

func biPow(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindDouble || args[1].Kind != eval.KindDouble {
		return eval.Value{}, typeError("pow", []string{"number", "number"}, args)
	}
	return ev.FiniteNumber(math.Pow(args[0].Num, args[1].Num))
}

func biMantissa(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindDouble {
		return eval.Value{}, typeError("mantissa", []string{"number"}, args)
	}
	frac, _ := math.Frexp(args[0].Num)
	return eval.Number(frac), nil
}

func biExponent(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindDouble {
		return eval.Value{}, typeError("exponent", []string{"number"}, args)
	}
	_, exp := math.Frexp(args[0].Num)
	return eval.Number(float64(exp)), nil
}

func biModulo(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindDouble || args[1].Kind != eval.KindDouble {
		return eval.Value{}, typeError("modulo", []string{"number", "number"}, args)
	}
	if args[1].Num == 0 {
		return eval.Value{}, fmt.Errorf("division by zero")
	}
	return ev.FiniteNumber(math.Mod(args[0].Num, args[1].Num))
}

func biType(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	return ev.NewString(args[0].Kind.String()), nil
}

func biLength(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	switch args[0].Kind {
	case eval.KindString:
		return eval.Number(float64(ev.StringLen(args[0]))), nil
	case eval.KindArray:
		return eval.Number(float64(ev.ArrayLen(args[0]))), nil
	case eval.KindObject:
		return eval.Number(float64(len(ev.VisibleFields(args[0])))), nil
	default:
		return eval.Value{}, typeError("length", []string{"string|array|object"}, args)
	}
}

func biMakeArray(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindDouble || args[1].Kind != eval.KindFunction {
		return eval.Value{}, typeError("makeArray", []string{"number", "function"}, args)
	}
	n := int(args[0].Num)
	if n < 0 {
		return eval.Value{}, fmt.Errorf("makeArray: size must be non-negative")
	}
	return ev.MakeArray(n, args[1])
}

func biFilter(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindFunction || args[1].Kind != eval.KindArray {
		return eval.Value{}, typeError("filter", []string{"function", "array"}, args)
	}
	return ev.Filter(args[0], args[1])
}

func biObjectHasEx(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindObject || args[1].Kind != eval.KindString || args[2].Kind != eval.KindBoolean {
		return eval.Value{}, typeError("objectHasEx", []string{"object", "string", "boolean"}, args)
	}
	return eval.Bool(ev.ObjectHasEx(args[0], ev.StringValue(args[1]), args[2].Bool)), nil
}

func biObjectFieldsEx(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindObject || args[1].Kind != eval.KindBoolean {
		return eval.Value{}, typeError("objectFieldsEx", []string{"object", "boolean"}, args)
	}
	names := ev.ObjectFieldsEx(args[0], args[1].Bool)
	return ev.NewStringArray(names), nil
}

func biCodepoint(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindString || ev.StringLen(args[0]) != 1 {
		return eval.Value{}, typeError("codepoint", []string{"single-character string"}, args)
	}
	return eval.Number(float64(ev.StringRuneAt(args[0], 0))), nil
}

func biChar(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	if args[0].Kind != eval.KindDouble {
		return eval.Value{}, typeError("char", []string{"number"}, args)
	}
	n := int32(args[0].Num)
	if n < 0 || n >= 0x110000 {
		return eval.Value{}, fmt.Errorf("char: codepoint %d out of range [0, 0x110000)", n)
	}
	return ev.NewString(string(rune(n))), nil
}

func biPrimitiveEquals(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	a, b := args[0], args[1]
	if a.Kind != b.Kind {
		return eval.Bool(false), nil
	}
	switch a.Kind {
	case eval.KindNull:
		return eval.Bool(true), nil
	case eval.KindBoolean:
		return eval.Bool(a.Bool == b.Bool), nil
	case eval.KindDouble:
		// NaN is unequal to itself and everything else, following plain
		// IEEE-754 == semantics (open question (b), resolved in SPEC_FULL.md).
		return eval.Bool(a.Num == b.Num), nil
	case eval.KindString:
		return eval.Bool(ev.StringValue(a) == ev.StringValue(b)), nil
	case eval.KindFunction:
		return eval.Value{}, fmt.Errorf("cannot compare functions for equality")
	default:
		return eval.Value{}, typeError("primitiveEquals", []string{"primitive"}, args)
	}
}

// biEquals is the structural `std.equals` the desugarer targets for
// arrays/objects (spec.md SPEC_FULL.md §3 supplementary notes).
func biEquals(ev *eval.Evaluator, args []eval.Value) (eval.Value, error) {
	eq, err := ev.DeepEquals(args[0], args[1])
	if err != nil {
		return eval.Value{}, err
	}
	return eval.Bool(eq), nil
}

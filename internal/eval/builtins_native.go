package eval

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/ast"
)

// extVar(name) and native(name) (spec.md §4.F.13/.14, §4.G) are registered
// here in package eval itself rather than internal/eval/builtins: both need
// privileged access to Context.ExtVars/NativeCallbacks that an external
// registrant shouldn't have, unlike the pure-function math/string/array
// builtins.
func init() {
	RegisterBuiltin("extVar", []string{"name"}, biExtVar)
	RegisterBuiltin("native", []string{"name"}, biNative)
}

func biExtVar(ev *Evaluator, args []Value) (Value, error) {
	if args[0].Kind != KindString {
		return Value{}, fmt.Errorf("Builtin function extVar expected (string) but got (%s)", args[0].Kind)
	}
	return ev.extVarByName(ev.StringValue(args[0]))
}

// biNative implements spec.md §4.F.14: "Return a builtin-style closure
// whose body is implemented by the host native_callbacks[name]; parameter
// names carry through for error messages."
func biNative(ev *Evaluator, args []Value) (Value, error) {
	if args[0].Kind != KindString {
		return Value{}, fmt.Errorf("Builtin function native expected (string) but got (%s)", args[0].Kind)
	}
	name := ev.StringValue(args[0])
	cb, ok := ev.state.ctx.NativeCallbacks[name]
	if !ok {
		return Value{}, ev.runtimeErrorf("unknown native function: %s", name)
	}
	params := make([]ast.Param, len(cb.Params))
	for i, p := range cb.Params {
		params[i] = ast.Param{Name: p}
	}
	return Function(ev.alloc(&HeapClosure{Name: name, Params: params, NativeTarget: name}).(*HeapClosure)), nil
}

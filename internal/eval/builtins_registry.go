package eval

import "github.com/lumenlang/lumen/internal/ast"

// BuiltinFunc is a native implementation of a std-library function,
// invoked once every argument thunk has been forced (spec.md §4.F.2
// "BUILTIN_FORCE_THUNKS").
type BuiltinFunc func(ev *Evaluator, args []Value) (Value, error)

// builtinTable is populated by internal/eval/builtins' init() via
// RegisterBuiltin, not imported directly — this mirrors the teacher's
// registry.Register pattern (internal/interp/builtins/registry.go) while
// keeping the builtin implementations in their own package without an
// import cycle back into eval.
var builtinTable = map[string]BuiltinFunc{}

// builtinParams records each builtin's declared parameter names, needed
// to build the HeapClosure the evaluator calls through (spec.md §3:
// "params: [(name, default_ast?)]").
var builtinParams = map[string][]string{}

// RegisterBuiltin registers a builtin under name with its parameter
// names (used for argument binding and error messages).
func RegisterBuiltin(name string, params []string, fn BuiltinFunc) {
	builtinTable[name] = fn
	builtinParams[name] = params
}

// BuiltinClosure returns a callable Value for a registered builtin,
// suitable for installing in a root environment (e.g. the `std` object
// pkg/lumen constructs). Panics if name was never registered, since this
// is only ever called with names this module itself defines.
func BuiltinClosure(name string) Value {
	params, ok := builtinParams[name]
	if !ok {
		panic("eval: unregistered builtin " + name)
	}
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Name: p}
	}
	return Function(&HeapClosure{
		Name:        name,
		BuiltinName: name,
		Params:      ps,
	})
}

// Package eval is the evaluator: heap-allocated values, the mark-sweep
// collector, the explicit call stack, the object extension algebra, and
// the tree-walking loop that turns a desugared AST into a manifested JSON
// document. This is the core of the module (see SPEC_FULL.md's component
// table).
package eval

import "github.com/lumenlang/lumen/internal/ast"

// Kind tags a Value's payload (spec.md §3).
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindDouble
	KindString
	KindArray
	KindFunction
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindDouble:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union every evaluation step produces. Heap kinds
// (STRING/ARRAY/FUNCTION/OBJECT) carry a Ref to the backing heap entity;
// NULL/BOOLEAN/DOUBLE are unboxed.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Ref  HeapEntity
}

var Null = Value{Kind: KindNull}

func Bool(b bool) Value   { return Value{Kind: KindBoolean, Bool: b} }
func Number(n float64) Value { return Value{Kind: KindDouble, Num: n} }

func String(h *HeapString) Value   { return Value{Kind: KindString, Ref: h} }
func Array(h *HeapArray) Value     { return Value{Kind: KindArray, Ref: h} }
func Function(h *HeapClosure) Value { return Value{Kind: KindFunction, Ref: h} }
func Object(h HeapEntity) Value    { return Value{Kind: KindObject, Ref: h} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Env is a lexical environment: identifier to lazily-bound thunk. Thunks,
// not raw Values, are stored so that laziness is preserved across capture
// (spec.md Design Notes, "lazy thunks + memoization").
type Env map[string]*HeapThunk

// HeapEntity is any garbage-collected entity. Mark walks every Value (and
// therefore every HeapEntity) reachable from this entity, calling visit on
// each one exactly once per cycle (the visit callback is responsible for
// cycle detection; Heap.Sweep's callback keeps a set of entities already
// marked).
type HeapEntity interface {
	isMarked() bool
	setMarked(bool)
	markChildren(visit func(HeapEntity))
}

type entityBase struct{ marked bool }

func (e *entityBase) isMarked() bool     { return e.marked }
func (e *entityBase) setMarked(m bool)    { e.marked = m }

// HeapString is an immutable codepoint sequence (spec.md §3). Stored as
// []rune rather than a Go string so length/codepoint/indexing are O(1) and
// exact, matching the original implementation's UTF-32 string type (see
// SPEC_FULL.md §3 supplementary notes).
type HeapString struct {
	entityBase
	Runes []rune
}

func (h *HeapString) markChildren(func(HeapEntity)) {}

func NewHeapString(s string) *HeapString {
	return &HeapString{Runes: []rune(s)}
}

func (h *HeapString) String() string { return string(h.Runes) }

// HeapArray holds lazy elements: each slot is a thunk, not a Value.
type HeapArray struct {
	entityBase
	Elements []*HeapThunk
}

func (h *HeapArray) markChildren(visit func(HeapEntity)) {
	for _, t := range h.Elements {
		visit(t)
	}
}

// HeapThunk is a deferred, memoizing computation (spec.md §3).
type HeapThunk struct {
	entityBase
	Name        string
	Self        Value
	HasSelf     bool
	SuperOffset int
	Body        ast.Node // nil when pre-filled from a host/JSON literal
	Env         Env
	Filled      bool
	Content     Value
}

func (h *HeapThunk) markChildren(visit func(HeapEntity)) {
	if h.HasSelf && h.Self.Ref != nil {
		visit(h.Self.Ref)
	}
	for _, t := range h.Env {
		visit(t)
	}
	if h.Filled && h.Content.Ref != nil {
		visit(h.Content.Ref)
	}
}

// NewFilledThunk wraps an already-known value, e.g. for host/JSON literals
// injected as extVar/TLA bindings (spec.md §4.F.12-13).
func NewFilledThunk(v Value) *HeapThunk {
	return &HeapThunk{Filled: true, Content: v}
}

// HeapClosure is a function value: either a user-defined closure with an
// AST body, or a builtin identified by name (spec.md §3: "body_ast == null
// => builtin").
type HeapClosure struct {
	entityBase
	Name        string
	Env         Env
	Self        Value
	HasSelf     bool
	SuperOffset int
	Params      []ast.Param
	Body        ast.Node
	BuiltinName string

	// NativeTarget, when non-empty, names a host-registered
	// native_callbacks entry (spec.md §4.F.14) this closure dispatches to
	// instead of builtinTable; produced only by the `native(name)` builtin.
	NativeTarget string
}

func (h *HeapClosure) markChildren(visit func(HeapEntity)) {
	for _, t := range h.Env {
		visit(t)
	}
	if h.HasSelf && h.Self.Ref != nil {
		visit(h.Self.Ref)
	}
}

func (h *HeapClosure) IsBuiltin() bool { return h.Body == nil }

// FieldSpec is one field's visibility tag and body expression. Thunk, when
// non-nil, supplies an already-built value directly (bypassing Body/Eval
// entirely) — used for host-bridged objects that have no surrounding
// source expression to evaluate (see internal/eval/host).
type FieldSpec struct {
	Hide  ast.Hide
	Body  ast.Node
	Thunk *HeapThunk
}

// HeapSimpleObject is one leaf of an extension tree (spec.md §3).
type HeapSimpleObject struct {
	entityBase
	Env     Env
	Fields  map[string]FieldSpec
	Asserts []ast.Node
}

func (h *HeapSimpleObject) markChildren(visit func(HeapEntity)) {
	for _, t := range h.Env {
		visit(t)
	}
}

// HeapExtendedObject is the `+` of two objects: a persistent binary tree
// node. Never stores a back-pointer to its parent, so self/super travel
// through the evaluation frame instead (spec.md Design Notes).
type HeapExtendedObject struct {
	entityBase
	Left, Right Value
}

func (h *HeapExtendedObject) markChildren(visit func(HeapEntity)) {
	if h.Left.Ref != nil {
		visit(h.Left.Ref)
	}
	if h.Right.Ref != nil {
		visit(h.Right.Ref)
	}
}

// HeapComprehensionObject is the leaf produced by an object comprehension
// (spec.md §3, §4.F.7). Its fields are always visible.
type HeapComprehensionObject struct {
	entityBase
	Env        Env
	ValueAst   ast.Node
	IterVar    string
	CompValues map[string]*HeapThunk
}

func (h *HeapComprehensionObject) markChildren(visit func(HeapEntity)) {
	for _, t := range h.Env {
		visit(t)
	}
	for _, t := range h.CompValues {
		visit(t)
	}
}

// Package ast defines the desugared core abstract syntax tree that the
// evaluator walks. It intentionally contains only the "small set of core
// forms" the specification names (spec.md §1): internal/parser emits these
// core forms directly, and internal/analyzer rewrites `==`/`!=` into calls
// of the `equals` builtin, before the evaluator ever sees the tree.
package ast

import "github.com/lumenlang/lumen/internal/lexer"

// FreeVarSet is the set of identifiers a node (and everything beneath it)
// reads from its enclosing lexical environment. internal/analyzer computes
// this bottom-up; the evaluator uses it to build each thunk/closure's
// captured environment (spec.md §4.F, "capture(free_vars(ei))").
type FreeVarSet map[string]bool

// Union returns a new set containing every name in s or other.
func (s FreeVarSet) Union(other FreeVarSet) FreeVarSet {
	out := make(FreeVarSet, len(s)+len(other))
	for k := range s {
		out[k] = true
	}
	for k := range other {
		out[k] = true
	}
	return out
}

// Remove returns a copy of s with names removed.
func (s FreeVarSet) Remove(names ...string) FreeVarSet {
	out := make(FreeVarSet, len(s))
	for k := range s {
		out[k] = true
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Node is any core AST node: an expression position with a source
// location and (after analysis) a free-variable set.
type Node interface {
	Pos() lexer.Position
	FreeVars() FreeVarSet
	setFreeVars(FreeVarSet)
}

// Base is embedded by every concrete node type; it supplies the Node
// plumbing (position + free-variable set) so individual node structs only
// declare their own shape.
type Base struct {
	P  lexer.Position
	FV FreeVarSet
}

func (b *Base) Pos() lexer.Position        { return b.P }
func (b *Base) FreeVars() FreeVarSet       { return b.FV }
func (b *Base) setFreeVars(fv FreeVarSet)  { b.FV = fv }

// SetFreeVars is the exported hook internal/analyzer uses to annotate a
// node once its free-variable set has been computed.
func SetFreeVars(n Node, fv FreeVarSet) { n.setFreeVars(fv) }

// --- Literals ---------------------------------------------------------

type LiteralNull struct{ Base }
type LiteralBoolean struct {
	Base
	Value bool
}
type LiteralNumber struct {
	Base
	Value float64
}
type LiteralString struct {
	Base
	Value string
}

// --- Composite forms ----------------------------------------------------

// Array is an array literal; each element becomes its own thunk at
// evaluation time (spec.md §4.F.1).
type Array struct {
	Base
	Elements []Node
}

// BinaryOp enumerates the binary operators the evaluator's BINARY_LEFT /
// BINARY_RIGHT frames dispatch on (spec.md §4.F.4).
type BinaryOp int

const (
	OpPlus BinaryOp = iota
	OpMinus
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd // &&
	OpOr  // ||
)

type Binary struct {
	Base
	Left, Right Node
	Op          BinaryOp
}

// UnaryOp enumerates the unary operators of spec.md §4.F.5.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpPos
	OpBitNot
)

type Unary struct {
	Base
	Expr Node
	Op   UnaryOp
}

// Var references a lexically bound identifier.
type Var struct {
	Base
	Name string
}

// Self is the `self` keyword.
type Self struct{ Base }

// Super is a bare `super` keyword; only ever valid as the target of a
// SuperIndex, which the parser rewrites it into (spec.md §4.F.9).
type Super struct{ Base }

// SuperIndex is `super[e]`.
type SuperIndex struct {
	Base
	Index Node
}

// Index is `target[index]`.
type Index struct {
	Base
	Target Node
	Index  Node
}

// Arg is one call argument: Name is empty for positional arguments.
type Arg struct {
	Name  string
	Value Node
}

// Apply is a function call (spec.md §4.F.2).
type Apply struct {
	Base
	Target     Node
	Args       []Arg
	TailStrict bool
}

// Param is one function parameter, with an optional default-value
// expression (nil when the parameter is required).
type Param struct {
	Name    string
	Default Node
}

// Function is a closure literal.
type Function struct {
	Base
	Params []Param
	Body   Node
}

// LocalBind is one binding of a `local` form. Bindings in the same `local`
// may be mutually recursive (spec.md Design Notes).
type LocalBind struct {
	Name  string
	Value Node
}

// Local is `local b1 = e1, ..., bn = en; body`.
type Local struct {
	Base
	Binds []LocalBind
	Body  Node
}

// If is a conditional; Else may be nil (defaults to null).
type If struct {
	Base
	Cond, Then, Else Node
}

// Error raises expr (coerced to string) as a runtime error.
type Error struct {
	Base
	Expr Node
}

// Import loads and evaluates another file as an expression.
type Import struct {
	Base
	Path string
}

// ImportStr loads another file's raw contents as a string.
type ImportStr struct {
	Base
	Path string
}

// ExtVar reads an external variable by name (spec.md §4.F.13).
type ExtVar struct {
	Base
	Name string
}

// Hide is a field's visibility tag (spec.md §3 Invariant 3 / GLOSSARY).
type Hide int

const (
	HideInherit Hide = iota
	HideVisible
	HideHidden
)

// ObjectField is one field of a desugared object literal: its name
// expression (evaluated at construction time; spec.md §4.F.6), visibility,
// and body expression.
type ObjectField struct {
	NameExpr Node
	Hide     Hide
	Body     Node
}

// DesugaredObject is the core object-literal form (spec.md §3, §4.F.6).
type DesugaredObject struct {
	Base
	Fields  []ObjectField
	Asserts []Node
}

// BuiltinRef directly names a registered builtin function, bypassing
// ordinary variable lookup. internal/analyzer introduces these when
// desugaring `==`/`!=` into calls to the structural equality builtin
// (SPEC_FULL.md §3 supplementary notes); no surface syntax produces one
// directly.
type BuiltinRef struct {
	Base
	Name string
}

// ObjectComprehensionSimple is `{ [nameExpr]: valueExpr for iterVar in arr }`
// (spec.md §4.F.7). Only a single `for` clause is supported at the core
// level; a surface grammar with multiple for/if clauses would be lowered
// to nested comprehensions by the desugarer, but this implementation's
// parser emits the single-clause form directly.
type ObjectComprehensionSimple struct {
	Base
	NameExpr Node
	ValueExpr Node
	IterVar  string
	Array    Node
}

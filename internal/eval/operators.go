package eval

import (
	"math"

	"github.com/lumenlang/lumen/internal/ast"
)

func (ev *Evaluator) evalUnary(sc scope, n *ast.Unary) (Value, error) {
	v, err := ev.Eval(sc, n.Expr)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case ast.OpNot:
		if v.Kind != KindBoolean {
			return Value{}, ev.runtimeErrorf("unary ! requires a boolean, got %s", v.Kind)
		}
		return Bool(!v.Bool), nil
	case ast.OpNeg:
		if v.Kind != KindDouble {
			return Value{}, ev.runtimeErrorf("unary - requires a number, got %s", v.Kind)
		}
		return ev.checkFinite(-v.Num)
	case ast.OpPos:
		if v.Kind != KindDouble {
			return Value{}, ev.runtimeErrorf("unary + requires a number, got %s", v.Kind)
		}
		return v, nil
	case ast.OpBitNot:
		if v.Kind != KindDouble {
			return Value{}, ev.runtimeErrorf("unary ~ requires a number, got %s", v.Kind)
		}
		return Number(float64(^toInt64(v.Num))), nil
	default:
		return Value{}, ev.runtimeErrorf("internal error: unhandled unary operator")
	}
}

// toInt64 truncates a double to a two's-complement integer the way
// shift/bitwise operands are defined (spec.md §4.F.4).
func toInt64(n float64) int64 { return int64(n) }

// checkFinite enforces Invariant 6: every produced DOUBLE must be finite.
func (ev *Evaluator) checkFinite(n float64) (Value, error) {
	if math.IsNaN(n) {
		return Value{}, ev.runtimeErrorf("Not a number")
	}
	if math.IsInf(n, 0) {
		return Value{}, ev.runtimeErrorf("Overflow")
	}
	return Number(n), nil
}

func (ev *Evaluator) evalBinary(sc scope, n *ast.Binary) (Value, error) {
	// Short-circuit boolean operators evaluate the right side only when
	// necessary (spec.md §4.F.4).
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		left, err := ev.Eval(sc, n.Left)
		if err != nil {
			return Value{}, err
		}
		if left.Kind != KindBoolean {
			return Value{}, ev.runtimeErrorf("&&/|| requires booleans, got %s", left.Kind)
		}
		if n.Op == ast.OpAnd && !left.Bool {
			return Bool(false), nil
		}
		if n.Op == ast.OpOr && left.Bool {
			return Bool(true), nil
		}
		right, err := ev.Eval(sc, n.Right)
		if err != nil {
			return Value{}, err
		}
		if right.Kind != KindBoolean {
			return Value{}, ev.runtimeErrorf("&&/|| requires booleans, got %s", right.Kind)
		}
		return right, nil
	}

	if n.Op >= 1000 {
		return Value{}, ev.runtimeErrorf("internal error: raw equality operator reached the evaluator (should have been desugared)")
	}

	left, err := ev.Eval(sc, n.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := ev.Eval(sc, n.Right)
	if err != nil {
		return Value{}, err
	}

	// `+` with either side a string coerces the other side via
	// manifestation (single-line) and concatenates (spec.md §4.F.4).
	if n.Op == ast.OpPlus && (left.Kind == KindString || right.Kind == KindString) {
		ls, err := ev.coerceToString(left)
		if err != nil {
			return Value{}, err
		}
		rs, err := ev.coerceToString(right)
		if err != nil {
			return Value{}, err
		}
		return String(ev.alloc(NewHeapString(ls + rs)).(*HeapString)), nil
	}

	switch {
	case left.Kind == KindArray && right.Kind == KindArray:
		return ev.arrayBinary(n.Op, left, right)
	case left.Kind == KindObject && right.Kind == KindObject:
		return ev.objectBinary(n.Op, left, right)
	case left.Kind == KindDouble && right.Kind == KindDouble:
		return ev.numberBinary(n.Op, left.Num, right.Num)
	case left.Kind == KindString && right.Kind == KindString:
		return ev.stringBinary(n.Op, left.Ref.(*HeapString).String(), right.Ref.(*HeapString).String())
	default:
		return Value{}, ev.runtimeErrorf("operator not defined for %s and %s", left.Kind, right.Kind)
	}
}

func (ev *Evaluator) arrayBinary(op ast.BinaryOp, left, right Value) (Value, error) {
	if op != ast.OpPlus {
		return Value{}, ev.runtimeErrorf("operator not defined for arrays")
	}
	la := left.Ref.(*HeapArray)
	ra := right.Ref.(*HeapArray)
	elems := make([]*HeapThunk, 0, len(la.Elements)+len(ra.Elements))
	elems = append(elems, la.Elements...)
	elems = append(elems, ra.Elements...)
	return Array(ev.alloc(&HeapArray{Elements: elems}).(*HeapArray)), nil
}

func (ev *Evaluator) objectBinary(op ast.BinaryOp, left, right Value) (Value, error) {
	if op != ast.OpPlus {
		return Value{}, ev.runtimeErrorf("operator not defined for objects")
	}
	return Object(ev.alloc(&HeapExtendedObject{Left: left, Right: right})), nil
}

func (ev *Evaluator) stringBinary(op ast.BinaryOp, left, right string) (Value, error) {
	switch op {
	case ast.OpPlus:
		return String(ev.alloc(NewHeapString(left + right)).(*HeapString)), nil
	case ast.OpLt:
		return Bool(left < right), nil
	case ast.OpLe:
		return Bool(left <= right), nil
	case ast.OpGt:
		return Bool(left > right), nil
	case ast.OpGe:
		return Bool(left >= right), nil
	default:
		return Value{}, ev.runtimeErrorf("operator not defined for strings")
	}
}

func (ev *Evaluator) numberBinary(op ast.BinaryOp, l, r float64) (Value, error) {
	switch op {
	case ast.OpPlus:
		return ev.checkFinite(l + r)
	case ast.OpMinus:
		return ev.checkFinite(l - r)
	case ast.OpMul:
		return ev.checkFinite(l * r)
	case ast.OpDiv:
		if r == 0 {
			return Value{}, ev.runtimeErrorf("division by zero")
		}
		return ev.checkFinite(l / r)
	case ast.OpMod:
		if r == 0 {
			return Value{}, ev.runtimeErrorf("division by zero")
		}
		return ev.checkFinite(math.Mod(l, r))
	case ast.OpShl:
		return Number(float64(toInt64(l) << uint(toInt64(r)&63))), nil
	case ast.OpShr:
		return Number(float64(toInt64(l) >> uint(toInt64(r)&63))), nil
	case ast.OpBitAnd:
		return Number(float64(toInt64(l) & toInt64(r))), nil
	case ast.OpBitOr:
		return Number(float64(toInt64(l) | toInt64(r))), nil
	case ast.OpBitXor:
		return Number(float64(toInt64(l) ^ toInt64(r))), nil
	case ast.OpLt:
		return Bool(l < r), nil
	case ast.OpLe:
		return Bool(l <= r), nil
	case ast.OpGt:
		return Bool(l > r), nil
	case ast.OpGe:
		return Bool(l >= r), nil
	default:
		return Value{}, ev.runtimeErrorf("internal error: unhandled binary operator")
	}
}

package eval

import (
	"sort"

	"github.com/lumenlang/lumen/internal/ast"
)

// The methods in this file are the surface internal/eval/builtins is
// written against: each wraps a heap/object-algebra primitive that would
// otherwise require builtins to reach into eval's unexported HeapEntity
// fields directly.

// FiniteNumber wraps n as a Value, enforcing Invariant 6.
func (ev *Evaluator) FiniteNumber(n float64) (Value, error) { return ev.checkFinite(n) }

// NewString allocates a heap string from a Go string.
func (ev *Evaluator) NewString(s string) Value {
	return String(ev.alloc(NewHeapString(s)).(*HeapString))
}

// NewStringArray allocates an array of pre-filled string thunks.
func (ev *Evaluator) NewStringArray(ss []string) Value {
	elems := make([]*HeapThunk, len(ss))
	ev.pushRoots(elemRoots(elems))
	defer ev.popRoots()
	for i, s := range ss {
		elems[i] = ev.alloc(NewFilledThunk(ev.NewString(s))).(*HeapThunk)
	}
	return Array(ev.alloc(&HeapArray{Elements: elems}).(*HeapArray))
}

// elemRoots is a rootFunc visiting every non-nil thunk in elems, shared by
// the builders in this file that fill a []*HeapThunk one entry at a time
// before it becomes reachable from any HeapArray.
func elemRoots(elems []*HeapThunk) rootFunc {
	return func(visit func(HeapEntity)) {
		for _, t := range elems {
			if t != nil {
				visit(t)
			}
		}
	}
}

// PushValueRoots registers every heap-referencing entity in vs as a GC root
// until the returned func is called. It's exported for embedders (e.g.
// internal/eval/host's ToEval) that build up a []Value of already-allocated
// heap entities before that slice is reachable from any scope.
func (ev *Evaluator) PushValueRoots(vs []Value) func() {
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, v := range vs {
			if v.Ref != nil {
				visit(v.Ref)
			}
		}
	})
	return ev.popRoots
}

// PushValueMapRoots is PushValueRoots for the map-of-Values shape
// NewObjectOfValues's callers build up field by field.
func (ev *Evaluator) PushValueMapRoots(vs map[string]Value) func() {
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, v := range vs {
			if v.Ref != nil {
				visit(v.Ref)
			}
		}
	})
	return ev.popRoots
}

func (ev *Evaluator) StringValue(v Value) string { return v.Ref.(*HeapString).String() }
func (ev *Evaluator) StringLen(v Value) int      { return len(v.Ref.(*HeapString).Runes) }
func (ev *Evaluator) StringRuneAt(v Value, i int) rune {
	return v.Ref.(*HeapString).Runes[i]
}
func (ev *Evaluator) ArrayLen(v Value) int { return len(v.Ref.(*HeapArray).Elements) }

// NewArrayOfValues allocates an array of pre-filled thunks wrapping elems,
// for bridging a fully-built host value tree onto the heap.
func (ev *Evaluator) NewArrayOfValues(elems []Value) Value {
	thunks := make([]*HeapThunk, len(elems))
	ev.pushRoots(elemRoots(thunks))
	defer ev.popRoots()
	for i, v := range elems {
		thunks[i] = ev.alloc(NewFilledThunk(v)).(*HeapThunk)
	}
	return Array(ev.alloc(&HeapArray{Elements: thunks}).(*HeapArray))
}

// NewObjectOfValues allocates a simple object of pre-filled thunks wrapping
// fields, for bridging a fully-built host value tree onto the heap. order
// gives the field names in their original (insertion) order; field
// visibility defaults to VISIBLE.
func (ev *Evaluator) NewObjectOfValues(fields map[string]Value, order []string) Value {
	obj := &HeapSimpleObject{Fields: make(map[string]FieldSpec, len(fields))}
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, f := range obj.Fields {
			if f.Thunk != nil {
				visit(f.Thunk)
			}
		}
	})
	defer ev.popRoots()
	for _, name := range order {
		thunk := ev.alloc(NewFilledThunk(fields[name])).(*HeapThunk)
		obj.Fields[name] = FieldSpec{Hide: ast.HideVisible, Thunk: thunk}
	}
	return Object(ev.alloc(obj).(*HeapSimpleObject))
}

// VisibleFields returns every visible field name of an object (unsorted).
func (ev *Evaluator) VisibleFields(v Value) []string {
	leaves := leavesOf(v)
	var out []string
	for _, name := range visibleFieldNames(v) {
		if resolveVisibility(leaves, name) != ast.HideHidden {
			out = append(out, name)
		}
	}
	return out
}

// ObjectHasEx reports whether obj has field name, optionally including
// hidden fields (spec.md §4.G objectHasEx).
func (ev *Evaluator) ObjectHasEx(obj Value, name string, includeHidden bool) bool {
	leaves := leavesOf(obj)
	_, _, _, ok := findField(leaves, name, 0)
	if !ok {
		return false
	}
	if includeHidden {
		return true
	}
	return resolveVisibility(leaves, name) != ast.HideHidden
}

// ObjectFieldsEx returns every field name, optionally including hidden
// ones, sorted lexicographically (spec.md §4.G objectFieldsEx).
func (ev *Evaluator) ObjectFieldsEx(obj Value, includeHidden bool) []string {
	var names []string
	if includeHidden {
		names = append([]string(nil), visibleFieldNames(obj)...)
	} else {
		names = append([]string(nil), ev.VisibleFields(obj)...)
	}
	sort.Strings(names)
	return names
}

// MakeArray implements spec.md §4.G `makeArray`: n thunks, each sharing
// fn's environment plus an extra binding `param0 = double(i)`, where
// param0 is fn's declared parameter name.
func (ev *Evaluator) MakeArray(n int, fn Value) (Value, error) {
	closure := fn.Ref.(*HeapClosure)
	if len(closure.Params) != 1 {
		return Value{}, ev.runtimeErrorf("makeArray: function must take exactly one parameter")
	}
	paramName := closure.Params[0].Name
	elems := make([]*HeapThunk, n)
	ev.pushRoots(elemRoots(elems))
	defer ev.popRoots()
	for i := 0; i < n; i++ {
		idxThunk := ev.alloc(NewFilledThunk(Number(float64(i)))).(*HeapThunk)
		env := make(Env, len(closure.Env)+1)
		for k, v := range closure.Env {
			env[k] = v
		}
		env[paramName] = idxThunk
		elems[i] = ev.alloc(&HeapThunk{
			Name: "array_element", Self: closure.Self, HasSelf: closure.HasSelf,
			SuperOffset: closure.SuperOffset, Body: closure.Body, Env: env,
		}).(*HeapThunk)
		if closure.IsBuiltin() {
			v, err := ev.callBuiltin(closure, env)
			if err != nil {
				return Value{}, err
			}
			elems[i].Filled = true
			elems[i].Content = v
		}
	}
	return Array(ev.alloc(&HeapArray{Elements: elems}).(*HeapArray)), nil
}

// Filter implements spec.md §4.G `filter`: retain elements for which fn
// returns true; a non-boolean result is an error.
func (ev *Evaluator) Filter(fn, arr Value) (Value, error) {
	closure := fn.Ref.(*HeapClosure)
	if len(closure.Params) != 1 {
		return Value{}, ev.runtimeErrorf("filter: function must take exactly one parameter")
	}
	paramName := closure.Params[0].Name
	array := arr.Ref.(*HeapArray)
	var kept []*HeapThunk
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range array.Elements {
			if t != nil {
				visit(t)
			}
		}
		for _, t := range kept {
			if t != nil {
				visit(t)
			}
		}
	})
	defer ev.popRoots()
	for _, elem := range array.Elements {
		env := make(Env, len(closure.Env)+1)
		for k, v := range closure.Env {
			env[k] = v
		}
		env[paramName] = elem
		var result Value
		var err error
		if closure.IsBuiltin() {
			result, err = ev.callBuiltin(closure, env)
		} else {
			result, err = ev.Eval(scope{env: env, self: closure.Self, hasSelf: closure.HasSelf, superOffset: closure.SuperOffset}, closure.Body)
		}
		if err != nil {
			return Value{}, err
		}
		if result.Kind != KindBoolean {
			return Value{}, ev.runtimeErrorf("filter: predicate must return a boolean, got %s", result.Kind)
		}
		if result.Bool {
			kept = append(kept, elem)
		}
	}
	return Array(ev.alloc(&HeapArray{Elements: kept}).(*HeapArray)), nil
}

// DeepEquals is the structural equality std.equals desugars `==`/`!=`
// into for non-primitive operands (SPEC_FULL.md §3 supplementary notes).
func (ev *Evaluator) DeepEquals(a, b Value) (bool, error) {
	if a.Kind != b.Kind {
		return false, nil
	}
	switch a.Kind {
	case KindNull:
		return true, nil
	case KindBoolean:
		return a.Bool == b.Bool, nil
	case KindDouble:
		return a.Num == b.Num, nil
	case KindString:
		return ev.StringValue(a) == ev.StringValue(b), nil
	case KindFunction:
		return false, ev.runtimeErrorf("cannot compare functions for equality")
	case KindArray:
		aa, bb := a.Ref.(*HeapArray), b.Ref.(*HeapArray)
		if len(aa.Elements) != len(bb.Elements) {
			return false, nil
		}
		for i := range aa.Elements {
			av, err := ev.force(aa.Elements[i])
			if err != nil {
				return false, err
			}
			bv, err := ev.force(bb.Elements[i])
			if err != nil {
				return false, err
			}
			eq, err := ev.DeepEquals(av, bv)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case KindObject:
		af, bf := ev.VisibleFields(a), ev.VisibleFields(b)
		if len(af) != len(bf) {
			return false, nil
		}
		for _, name := range af {
			if !ev.ObjectHasEx(b, name, false) {
				return false, nil
			}
			av, err := ev.objectIndex(a, name, 0)
			if err != nil {
				return false, err
			}
			bv, err := ev.objectIndex(b, name, 0)
			if err != nil {
				return false, err
			}
			eq, err := ev.DeepEquals(av, bv)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	default:
		return false, ev.runtimeErrorf("internal error: unhandled value kind in equals")
	}
}

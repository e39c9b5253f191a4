package eval

import (
	"fmt"
	"path/filepath"

	"github.com/lumenlang/lumen/internal/ast"
)

// Evaluator owns one run's heap, call stack, and import cache (spec.md §5:
// "each instance owns its heap, stack, import cache, and registries").
type Evaluator struct {
	state               *evalState
	executingInvariants map[HeapEntity]bool
}

// New creates an Evaluator ready to evaluate ASTs produced by loader under
// ctx's configuration.
func New(ctx *Context, loader Loader) *Evaluator {
	return &Evaluator{
		state: &evalState{
			ctx:     ctx,
			heap:    NewHeap(ctx.GCMinObjects, ctx.GCGrowthTrigger),
			stack:   NewCallStack(ctx.MaxStack),
			cache:   NewImportCache(),
			loader:  loader,
			rootEnv: builtinRootEnv(),
		},
		executingInvariants: map[HeapEntity]bool{},
	}
}

// builtinRootEnv binds every registered builtin (spec.md §4.G) to a
// pre-filled thunk under its bare name, so `pow(2, 3)`, `length(x)`, and
// so on resolve via ordinary lexical lookup/capture from any scope — the
// same mechanism spec.md §4.F.4's `==`/`!=` desugaring already relies on
// for `equals`, generalized to the whole builtin set. The map is built
// once per Evaluator and never mutated afterward, so every top-level
// entry point (EvalRoot, extVar code, import) can safely share it.
func builtinRootEnv() Env {
	env := make(Env, len(builtinParams))
	for name := range builtinParams {
		env[name] = &HeapThunk{Name: name, Filled: true, Content: BuiltinClosure(name)}
	}
	return env
}

func (ev *Evaluator) Heap() *Heap { return ev.state.heap }

// EvalRoot evaluates a top-level AST node (a whole file or snippet) with
// the builtin root environment, relative imports resolving against dir.
// This is the entry point pkg/lumen drives; scope itself stays
// unexported so only internal/eval constructs one.
func (ev *Evaluator) EvalRoot(dir string, node ast.Node) (Value, error) {
	return ev.Eval(scope{env: ev.state.rootEnv, dir: dir}, node)
}

// scope bundles the three pieces of evaluation context a node needs
// besides its environment: the enclosing `self`, the super-offset, and
// the importing file's directory (for relative imports). It mirrors the
// fields a CALL frame carries in spec.md §4.B, minus the parts (kind,
// thunks list, bindings) this simplified design folds into env/recursion.
type scope struct {
	env         Env
	self        Value
	hasSelf     bool
	superOffset int
	dir         string
}

func (s scope) withEnv(env Env) scope {
	s2 := s
	s2.env = env
	return s2
}

// alloc is a convenience wrapper around Heap.Alloc that supplies this
// evaluator's current GC roots.
func (ev *Evaluator) alloc(e HeapEntity) HeapEntity {
	return ev.state.heap.Alloc(e, ev.markRoots)
}

// markRoots is the Heap root source for this evaluator (spec.md §4.A step
// 1): it enumerates exactly what is live at the moment a collection is
// triggered — every scope currently on Eval's Go call stack (env bindings
// and self), every thunk currently being forced, and every in-progress
// binder's partially-built environment/slice (bindArgs, evalArray,
// evalLocal, evalObjectComprehension, ApplyNamed each push one of these
// for their own duration via pushRoots; Eval pushes its scope via
// pushScope and force pushes the thunk it's realizing via pushForcing).
// Nothing else is reachable: a HeapEntity referenced only by rootEnv's builtin
// closures needs no root here because BuiltinClosure values are never
// heap-allocated in the first place (see BuiltinClosure in
// builtins_registry.go), and the import cache holds AST nodes and raw
// strings, not HeapEntity values, so it contributes nothing to mark either.
func (ev *Evaluator) markRoots(visit func(HeapEntity)) {
	for _, f := range ev.state.pendingRoots {
		f(visit)
	}
	for _, t := range ev.state.forcing {
		visit(t)
	}
	for _, sc := range ev.state.liveScopes {
		for _, t := range sc.env {
			visit(t)
		}
		if sc.hasSelf && sc.self.Ref != nil {
			visit(sc.self.Ref)
		}
	}
}

// pushScope/popScope register sc as a GC root for as long as the Eval call
// that owns it is still executing (and, transitively, everything it calls).
func (ev *Evaluator) pushScope(sc scope) {
	ev.state.liveScopes = append(ev.state.liveScopes, sc)
}

func (ev *Evaluator) popScope() {
	n := len(ev.state.liveScopes)
	ev.state.liveScopes = ev.state.liveScopes[:n-1]
}

// pushForcing/popForcing register t as a GC root while force(t) is
// realizing its body — t is otherwise only reachable through whichever
// env entry pointed at it, and that entry is about to be superseded by
// the memoized Content once force returns.
func (ev *Evaluator) pushForcing(t *HeapThunk) {
	ev.state.forcing = append(ev.state.forcing, t)
}

func (ev *Evaluator) popForcing() {
	n := len(ev.state.forcing)
	ev.state.forcing = ev.state.forcing[:n-1]
}

// pushRoots registers f as a GC root source until the matching popRoots,
// for binders that allocate thunks into a map/slice before that
// map/slice is reachable from any scope.
func (ev *Evaluator) pushRoots(f rootFunc) {
	ev.state.pendingRoots = append(ev.state.pendingRoots, f)
}

func (ev *Evaluator) popRoots() {
	n := len(ev.state.pendingRoots)
	ev.state.pendingRoots = ev.state.pendingRoots[:n-1]
}

// Eval evaluates node under sc, returning its value or a *RuntimeError. sc
// is registered as a GC root for the duration of this call (and everything
// it recurses into), since it is exactly the "in-flight evaluation state"
// spec.md §4.A step 1 requires the collector to treat as live.
func (ev *Evaluator) Eval(sc scope, node ast.Node) (Value, error) {
	ev.pushScope(sc)
	defer ev.popScope()
	switch n := node.(type) {
	case *ast.LiteralNull:
		return Null, nil
	case *ast.LiteralBoolean:
		return Bool(n.Value), nil
	case *ast.LiteralNumber:
		return Number(n.Value), nil
	case *ast.LiteralString:
		return String(ev.alloc(NewHeapString(n.Value)).(*HeapString)), nil

	case *ast.Array:
		return ev.evalArray(sc, n)

	case *ast.Var:
		return ev.evalVar(sc, n)

	case *ast.Self:
		if !sc.hasSelf {
			return Value{}, ev.runtimeErrorf("self used outside of an object")
		}
		return sc.self, nil

	case *ast.Super:
		return Value{}, ev.runtimeErrorf("super used without indexing")

	case *ast.SuperIndex:
		return ev.evalSuperIndex(sc, n)

	case *ast.Index:
		return ev.evalIndex(sc, n)

	case *ast.Apply:
		return ev.evalApply(sc, n)

	case *ast.Function:
		return ev.makeClosure(sc, n, ""), nil

	case *ast.BuiltinRef:
		return BuiltinClosure(n.Name), nil

	case *ast.Local:
		return ev.evalLocal(sc, n)

	case *ast.If:
		cond, err := ev.Eval(sc, n.Cond)
		if err != nil {
			return Value{}, err
		}
		if cond.Kind != KindBoolean {
			return Value{}, ev.runtimeErrorf("condition must be a boolean, got %s", cond.Kind)
		}
		if cond.Bool {
			return ev.Eval(sc, n.Then)
		}
		if n.Else == nil {
			return Null, nil
		}
		return ev.Eval(sc, n.Else)

	case *ast.Error:
		v, err := ev.Eval(sc, n.Expr)
		if err != nil {
			return Value{}, err
		}
		msg, err := ev.coerceToString(v)
		if err != nil {
			return Value{}, err
		}
		return Value{}, ev.runtimeErrorf("%s", msg)

	case *ast.Import:
		return ev.evalImport(sc, n)

	case *ast.ImportStr:
		return ev.evalImportStr(sc, n)

	case *ast.ExtVar:
		return ev.evalExtVar(n)

	case *ast.Unary:
		return ev.evalUnary(sc, n)

	case *ast.Binary:
		return ev.evalBinary(sc, n)

	case *ast.DesugaredObject:
		return ev.evalObjectLiteral(sc, n)

	case *ast.ObjectComprehensionSimple:
		return ev.evalObjectComprehension(sc, n)

	default:
		return Value{}, fmt.Errorf("internal error: unhandled AST node %T", node)
	}
}

func (ev *Evaluator) evalArray(sc scope, n *ast.Array) (Value, error) {
	elems := make([]*HeapThunk, len(n.Elements))
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range elems {
			if t != nil {
				visit(t)
			}
		}
	})
	defer ev.popRoots()
	for i, e := range n.Elements {
		elems[i] = ev.alloc(&HeapThunk{
			Name:        "array_element",
			Self:        sc.self,
			HasSelf:     sc.hasSelf,
			SuperOffset: sc.superOffset,
			Body:        e,
			Env:         captureEnv(sc.env, e.FreeVars()),
		}).(*HeapThunk)
	}
	return Array(ev.alloc(&HeapArray{Elements: elems}).(*HeapArray)), nil
}

// captureEnv narrows env to exactly the free variables free needs,
// matching spec.md §4.F.1/.2's `capture(free_vars(e))`.
func captureEnv(env Env, free ast.FreeVarSet) Env {
	out := make(Env, len(free))
	for name := range free {
		if t, ok := env[name]; ok {
			out[name] = t
		}
	}
	return out
}

func (ev *Evaluator) evalVar(sc scope, n *ast.Var) (Value, error) {
	t, ok := sc.env[n.Name]
	if !ok {
		return Value{}, ev.runtimeErrorf("unknown variable: %s", n.Name)
	}
	return ev.force(t)
}

// force realizes a thunk's value, memoizing on first demand (spec.md
// §4.F.3, Invariant 2). A CALL frame is pushed around the body evaluation
// so the thunk participates in stack-depth counting and traces.
func (ev *Evaluator) force(t *HeapThunk) (Value, error) {
	if t.Filled {
		return t.Content, nil
	}
	if t.Body == nil {
		// Pre-filled host/JSON literal with no body never reaches here
		// unfilled; defensive fallback keeps force total.
		t.Filled = true
		return t.Content, nil
	}
	if err := ev.state.stack.Push(CallFrame{Pos: t.Body.Pos(), Name: "thunk " + nameOrAnon(t.Name)}); err != nil {
		return Value{}, ev.runtimeErrorf("%s", err)
	}
	ev.pushForcing(t)
	v, err := ev.Eval(scope{env: t.Env, self: t.Self, hasSelf: t.HasSelf, superOffset: t.SuperOffset}, t.Body)
	ev.popForcing()
	ev.state.stack.Pop()
	if err != nil {
		return Value{}, err
	}
	t.Content = v
	t.Filled = true
	return v, nil
}

func nameOrAnon(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func (ev *Evaluator) evalLocal(sc scope, n *ast.Local) (Value, error) {
	env := make(Env, len(sc.env)+len(n.Binds))
	for k, v := range sc.env {
		env[k] = v
	}
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range env {
			visit(t)
		}
	})
	defer ev.popRoots()
	// All bindings' thunks are created before any capture, so mutually
	// recursive locals can see each other (spec.md Design Notes).
	thunks := make([]*HeapThunk, len(n.Binds))
	for i, b := range n.Binds {
		thunks[i] = &HeapThunk{Name: b.Name, Self: sc.self, HasSelf: sc.hasSelf, SuperOffset: sc.superOffset}
		env[b.Name] = thunks[i]
	}
	for i, b := range n.Binds {
		thunks[i].Body = b.Value
		thunks[i].Env = captureEnv(env, b.Value.FreeVars())
		ev.alloc(thunks[i])
	}
	return ev.Eval(sc.withEnv(env), n.Body)
}

func (ev *Evaluator) evalIndex(sc scope, n *ast.Index) (Value, error) {
	target, err := ev.Eval(sc, n.Target)
	if err != nil {
		return Value{}, err
	}
	idx, err := ev.Eval(sc, n.Index)
	if err != nil {
		return Value{}, err
	}
	return ev.index(sc, target, idx)
}

func (ev *Evaluator) index(sc scope, target, idx Value) (Value, error) {
	switch target.Kind {
	case KindArray:
		if idx.Kind != KindDouble {
			return Value{}, ev.runtimeErrorf("array index must be a number, got %s", idx.Kind)
		}
		arr := target.Ref.(*HeapArray)
		i := int(idx.Num)
		if i < 0 || i >= len(arr.Elements) {
			return Value{}, ev.runtimeErrorf("array index %d out of bounds [0,%d)", i, len(arr.Elements))
		}
		return ev.force(arr.Elements[i])
	case KindObject:
		if idx.Kind != KindString {
			return Value{}, ev.runtimeErrorf("object index must be a string, got %s", idx.Kind)
		}
		return ev.objectIndex(target, idx.Ref.(*HeapString).String(), 0)
	case KindString:
		if idx.Kind != KindDouble {
			return Value{}, ev.runtimeErrorf("string index must be a number, got %s", idx.Kind)
		}
		s := target.Ref.(*HeapString)
		i := int(idx.Num)
		if i < 0 || i >= len(s.Runes) {
			return Value{}, ev.runtimeErrorf("string index %d out of bounds [0,%d)", i, len(s.Runes))
		}
		return String(ev.alloc(NewHeapString(string(s.Runes[i]))).(*HeapString)), nil
	default:
		return Value{}, ev.runtimeErrorf("cannot index a %s value", target.Kind)
	}
}

func (ev *Evaluator) evalSuperIndex(sc scope, n *ast.SuperIndex) (Value, error) {
	if !sc.hasSelf {
		return Value{}, ev.runtimeErrorf("super used outside of an object")
	}
	idx, err := ev.Eval(sc, n.Index)
	if err != nil {
		return Value{}, err
	}
	if idx.Kind != KindString {
		return Value{}, ev.runtimeErrorf("object index must be a string, got %s", idx.Kind)
	}
	return ev.objectIndex(sc.self, idx.Ref.(*HeapString).String(), sc.superOffset+1)
}

// objectIndex implements spec.md §4.F.8-10: run invariants once, resolve
// the field starting startFrom leaves in, then evaluate its body with
// self/super_offset rebound to the found leaf.
func (ev *Evaluator) objectIndex(obj Value, field string, startFrom int) (Value, error) {
	if err := ev.runInvariantsOnce(obj); err != nil {
		return Value{}, err
	}
	leaves := leavesOf(obj)
	if startFrom > 0 && startFrom >= len(leaves) {
		return Value{}, ev.runtimeErrorf("no super class")
	}
	idx, spec, comp, ok := findField(leaves, field, startFrom)
	if !ok {
		return Value{}, ev.runtimeErrorf("Field does not exist: %s", field)
	}

	if comp != nil {
		env := make(Env, len(comp.Env)+1)
		for k, v := range comp.Env {
			env[k] = v
		}
		env[comp.IterVar] = comp.CompValues[field]
		if err := ev.state.stack.Push(CallFrame{Pos: comp.ValueAst.Pos(), Name: "object <comprehension>"}); err != nil {
			return Value{}, ev.runtimeErrorf("%s", err)
		}
		v, err := ev.Eval(scope{env: env, self: obj, hasSelf: true, superOffset: idx}, comp.ValueAst)
		ev.state.stack.Pop()
		return v, err
	}

	if spec.Thunk != nil {
		return ev.force(spec.Thunk)
	}

	leaf := leaves[idx].simple
	if err := ev.state.stack.Push(CallFrame{Pos: spec.Body.Pos(), Name: "field " + field}); err != nil {
		return Value{}, ev.runtimeErrorf("%s", err)
	}
	v, err := ev.Eval(scope{env: leaf.Env, self: obj, hasSelf: true, superOffset: idx}, spec.Body)
	ev.state.stack.Pop()
	return v, err
}

// runInvariantsOnce executes every leaf's asserts the first time obj is
// scrutinized, guarded by reentrancy tracking keyed on obj's identity
// (spec.md §4.F.10). The key stays recorded after a successful run; a run
// that fails removes it, so the next scrutiny runs the asserts again.
func (ev *Evaluator) runInvariantsOnce(obj Value) error {
	key := obj.Ref
	if key == nil || ev.executingInvariants[key] {
		return nil
	}
	ev.executingInvariants[key] = true
	succeeded := false
	defer func() {
		if !succeeded {
			delete(ev.executingInvariants, key)
		}
	}()

	leaves := leavesOf(obj)
	for i, leaf := range leaves {
		if leaf.simple == nil {
			continue
		}
		for _, assertNode := range leaf.simple.Asserts {
			if err := ev.state.stack.Push(CallFrame{Pos: assertNode.Pos(), Name: "assert"}); err != nil {
				return ev.runtimeErrorf("%s", err)
			}
			_, err := ev.Eval(scope{env: leaf.simple.Env, self: obj, hasSelf: true, superOffset: i}, assertNode)
			ev.state.stack.Pop()
			if err != nil {
				return err
			}
		}
	}
	succeeded = true
	return nil
}

// evalObjectLiteral constructs a HeapSimpleObject (spec.md §4.F.6). Field
// name expressions are evaluated against the object's own capture scope;
// a NULL name omits the field, a non-STRING name is a runtime error, and a
// duplicate name is a runtime error (spec.md §4.F.6).
func (ev *Evaluator) evalObjectLiteral(sc scope, n *ast.DesugaredObject) (Value, error) {
	env := captureEnv(sc.env, n.FreeVars())
	fields := make(map[string]FieldSpec, len(n.Fields))
	for _, f := range n.Fields {
		nameVal, err := ev.Eval(scope{env: env, self: sc.self, hasSelf: sc.hasSelf, superOffset: sc.superOffset}, f.NameExpr)
		if err != nil {
			return Value{}, err
		}
		if nameVal.Kind == KindNull {
			continue
		}
		if nameVal.Kind != KindString {
			return Value{}, ev.runtimeErrorf("field name must be a string, got %s", nameVal.Kind)
		}
		name := nameVal.Ref.(*HeapString).String()
		if _, dup := fields[name]; dup {
			return Value{}, ev.runtimeErrorf("duplicate field name: %s", name)
		}
		fields[name] = FieldSpec{Hide: f.Hide, Body: f.Body}
	}
	return Object(ev.alloc(&HeapSimpleObject{Env: env, Fields: fields, Asserts: n.Asserts})), nil
}

func (ev *Evaluator) evalObjectComprehension(sc scope, n *ast.ObjectComprehensionSimple) (Value, error) {
	arrVal, err := ev.Eval(sc, n.Array)
	if err != nil {
		return Value{}, err
	}
	if arrVal.Kind != KindArray {
		return Value{}, ev.runtimeErrorf("object comprehension source must be an array, got %s", arrVal.Kind)
	}
	arr := arrVal.Ref.(*HeapArray)
	compValues := make(map[string]*HeapThunk, len(arr.Elements))
	env := captureEnv(sc.env, n.FreeVars())
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range arr.Elements {
			if t != nil {
				visit(t)
			}
		}
		for _, t := range compValues {
			visit(t)
		}
	})
	defer ev.popRoots()
	for _, elemThunk := range arr.Elements {
		iterEnv := make(Env, len(env)+1)
		for k, v := range env {
			iterEnv[k] = v
		}
		iterEnv[n.IterVar] = elemThunk
		nameVal, err := ev.Eval(scope{env: iterEnv, self: sc.self, hasSelf: sc.hasSelf, superOffset: sc.superOffset}, n.NameExpr)
		if err != nil {
			return Value{}, err
		}
		if nameVal.Kind == KindNull {
			continue
		}
		if nameVal.Kind != KindString {
			return Value{}, ev.runtimeErrorf("field name must be a string, got %s", nameVal.Kind)
		}
		name := nameVal.Ref.(*HeapString).String()
		if _, dup := compValues[name]; dup {
			return Value{}, ev.runtimeErrorf("duplicate field name: %s", name)
		}
		compValues[name] = elemThunk
	}
	return Object(ev.alloc(&HeapComprehensionObject{
		Env:        env,
		ValueAst:   n.ValueExpr,
		IterVar:    n.IterVar,
		CompValues: compValues,
	})), nil
}

func (ev *Evaluator) evalExtVar(n *ast.ExtVar) (Value, error) {
	return ev.extVarByName(n.Name)
}

// extVarByName implements spec.md §4.F.13: look up an ext_var/ext_code
// binding, evaluating ext_code lazily on first demand. Shared by the
// (currently host-only-constructible) ast.ExtVar node and the `extVar`
// builtin spec.md §4.G names, which is how surface source actually reaches
// this (see internal/eval/builtins_native.go).
func (ev *Evaluator) extVarByName(name string) (Value, error) {
	binding, ok := ev.state.ctx.ExtVars[name]
	if !ok {
		return Value{}, ev.runtimeErrorf("Undefined external variable: %s", name)
	}
	if !binding.IsCode {
		return String(ev.alloc(NewHeapString(binding.Text)).(*HeapString)), nil
	}
	node, err := ev.state.loader.Load("<extvar:"+name+">", binding.Text)
	if err != nil {
		return Value{}, err
	}
	return ev.Eval(scope{env: ev.state.rootEnv}, node)
}

func (ev *Evaluator) evalImport(sc scope, n *ast.Import) (Value, error) {
	node, _, foundHere, err := ev.resolveImport(sc.dir, n.Path, true)
	if err != nil {
		return Value{}, err
	}
	return ev.Eval(scope{env: ev.state.rootEnv, dir: filepath.Dir(foundHere)}, node)
}

func (ev *Evaluator) evalImportStr(sc scope, n *ast.ImportStr) (Value, error) {
	_, content, _, err := ev.resolveImport(sc.dir, n.Path, false)
	if err != nil {
		return Value{}, err
	}
	return String(ev.alloc(NewHeapString(content)).(*HeapString)), nil
}

// resolveImport implements the import cache (spec.md §4.D, §4.F.12). When
// wantNode is true the cached/loaded AST is returned; otherwise only the
// raw content (importstr) is produced. foundHere is the path of the loaded
// file; evalImport resolves relative imports from that file against its
// directory, filepath.Dir(foundHere).
func (ev *Evaluator) resolveImport(dir, path string, wantNode bool) (ast.Node, string, string, error) {
	if entry, ok := ev.state.cache.lookup(dir, path); ok {
		return entry.node, entry.content, entry.foundHere, nil
	}
	if ev.state.ctx.ImportCallback == nil {
		return nil, "", "", ev.runtimeErrorf("no import callback configured")
	}
	content, foundHere, err := ev.state.ctx.ImportCallback(dir, path)
	if err != nil {
		return nil, "", "", ev.runtimeErrorf("could not import %q: %s", path, err)
	}
	entry := &importEntry{content: content, foundHere: foundHere}
	if wantNode {
		node, err := ev.state.loader.Load(foundHere, content)
		if err != nil {
			return nil, "", "", err
		}
		entry.node = node
	}
	ev.state.cache.store(dir, path, entry)
	return entry.node, entry.content, entry.foundHere, nil
}

// coerceToString renders v the way string concatenation and `error` do:
// strings pass through, everything else is manifested as single-line JSON
// (spec.md §4.F.4 "string coercion").
func (ev *Evaluator) coerceToString(v Value) (string, error) {
	if v.Kind == KindString {
		return v.Ref.(*HeapString).String(), nil
	}
	return ev.manifestToString(v, false, "")
}

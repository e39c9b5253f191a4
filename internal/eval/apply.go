package eval

import "github.com/lumenlang/lumen/internal/ast"

// makeClosure builds a HeapClosure capturing exactly fn's free variables
// (spec.md §3 HeapClosure). name is used for trace/name-heuristic
// purposes when known (e.g. `local f(x) = ...;`).
func (ev *Evaluator) makeClosure(sc scope, fn *ast.Function, name string) Value {
	env := captureEnv(sc.env, fn.FreeVars())
	return Function(ev.alloc(&HeapClosure{
		Name:        name,
		Env:         env,
		Self:        sc.self,
		HasSelf:     sc.hasSelf,
		SuperOffset: sc.superOffset,
		Params:      fn.Params,
		Body:        fn.Body,
	}).(*HeapClosure))
}

// evalApply implements spec.md §4.F.2: evaluate the callee, bind arguments
// (positional then named, validating duplicates/unknowns/excess/defaults),
// then either invoke a builtin on forced arguments or recurse into the
// closure body. `tailstrict` means arguments are bound strictly rather than
// lazily (bindArgs forces every bound thunk up front when n.TailStrict is
// set, so allThunksFilled is actually true for real calls, not just the
// zero-argument case); a tailstrict call then runs the callee body without
// pushing a CallFrame, so self-recursive tail calls do not grow the
// explicit CallStack — this is this implementation's rendering of spec.md
// §4.B's "tail-call trim" and satisfies Testable Property 7. When the
// callee body is itself an Apply, evalApply loops instead of recursing;
// any other body (an `if`, for example) is evaluated through Eval, so
// each such level still adds Go stack frames.
func (ev *Evaluator) evalApply(sc scope, n *ast.Apply) (Value, error) {
	targetNode := n.Target
	targetScope := sc
	for {
		calleeVal, err := ev.Eval(targetScope, targetNode)
		if err != nil {
			return Value{}, err
		}
		if calleeVal.Kind != KindFunction {
			return Value{}, ev.runtimeErrorf("cannot call a %s value", calleeVal.Kind)
		}
		closure := calleeVal.Ref.(*HeapClosure)

		argEnv, allThunksFilled, err := ev.bindArgs(sc, closure, n)
		if err != nil {
			return Value{}, err
		}

		if closure.IsBuiltin() {
			return ev.callBuiltin(closure, argEnv)
		}

		calleeScope := scope{env: argEnv, self: closure.Self, hasSelf: closure.HasSelf, superOffset: closure.SuperOffset}

		if n.TailStrict && allThunksFilled {
			body, ok := closure.Body.(*ast.Apply)
			if ok {
				// The callee's own body is itself a call in tail
				// position: loop instead of recursing (trampoline).
				n = body
				sc = calleeScope
				targetNode = body.Target
				targetScope = calleeScope
				continue
			}
			return ev.Eval(calleeScope, closure.Body)
		}

		frameName := "function " + nameOrAnon(closure.Name)
		if err := ev.state.stack.Push(CallFrame{Pos: n.Pos(), Name: frameName, TailCall: n.TailStrict}); err != nil {
			return Value{}, ev.runtimeErrorf("%s", err)
		}
		v, err := ev.Eval(calleeScope, closure.Body)
		ev.state.stack.Pop()
		return v, err
	}
}

// ApplyNamed invokes fnVal with a ready-made map of already-evaluated
// argument Values, keyed by parameter name. This is how the host
// interface applies a file's top-level function to top-level-argument
// (TLA) bindings (spec.md §6 "tla_var/tla_code") — there is no call-site
// AST for a TLA application, only host-supplied Values, so this bypasses
// evalApply's AST-driven argument binding in favor of pre-filled thunks.
func (ev *Evaluator) ApplyNamed(fnVal Value, args map[string]Value) (Value, error) {
	if fnVal.Kind != KindFunction {
		return Value{}, ev.runtimeErrorf("cannot call a %s value", fnVal.Kind)
	}
	closure := fnVal.Ref.(*HeapClosure)
	env := make(Env, len(closure.Env)+len(closure.Params))
	for k, v := range closure.Env {
		env[k] = v
	}
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range env {
			visit(t)
		}
	})
	defer ev.popRoots()
	for _, p := range closure.Params {
		if v, ok := args[p.Name]; ok {
			env[p.Name] = ev.alloc(NewFilledThunk(v)).(*HeapThunk)
			continue
		}
		if p.Default == nil {
			return Value{}, ev.runtimeErrorf("missing top-level argument: %s", p.Name)
		}
		env[p.Name] = ev.alloc(&HeapThunk{Name: p.Name, Body: p.Default, Env: env}).(*HeapThunk)
	}
	if closure.IsBuiltin() {
		return ev.callBuiltin(closure, env)
	}
	calleeScope := scope{env: env, self: closure.Self, hasSelf: closure.HasSelf, superOffset: closure.SuperOffset}
	if err := ev.state.stack.Push(CallFrame{Pos: closure.Body.Pos(), Name: "function " + nameOrAnon(closure.Name)}); err != nil {
		return Value{}, ev.runtimeErrorf("%s", err)
	}
	v, err := ev.Eval(calleeScope, closure.Body)
	ev.state.stack.Pop()
	return v, err
}

// bindArgs resolves n's arguments against closure's parameter list,
// returning the callee's full environment (up_values ∪ arg_bindings) and
// whether every bound argument thunk is already filled. For an ordinary
// call this is almost always false (arguments stay lazy); for a
// n.TailStrict call every thunk — explicit argument or default — is forced
// immediately as it is bound, so the returned bool is true whenever binding
// succeeds, which is what makes the call eligible for evalApply's
// CallFrame-free tailstrict path (spec.md §4.F.2).
func (ev *Evaluator) bindArgs(callerScope scope, closure *HeapClosure, n *ast.Apply) (Env, bool, error) {
	env := make(Env, len(closure.Env)+len(closure.Params))
	for k, v := range closure.Env {
		env[k] = v
	}
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range env {
			visit(t)
		}
	})
	defer ev.popRoots()

	bound := make(map[string]bool, len(n.Args))
	positional := 0
	seenNamed := false
	for _, arg := range n.Args {
		if arg.Name == "" {
			if seenNamed {
				return nil, false, ev.runtimeErrorf("positional argument after named argument")
			}
			if positional >= len(closure.Params) {
				return nil, false, ev.runtimeErrorf("too many arguments: expected at most %d", len(closure.Params))
			}
			param := closure.Params[positional]
			positional++
			th := &HeapThunk{
				Name: param.Name, Self: callerScope.self, HasSelf: callerScope.hasSelf,
				SuperOffset: callerScope.superOffset, Body: arg.Value,
				Env: captureEnv(callerScope.env, arg.Value.FreeVars()),
			}
			ev.alloc(th)
			if n.TailStrict {
				if _, err := ev.force(th); err != nil {
					return nil, false, err
				}
			}
			env[param.Name] = th
			bound[param.Name] = true
			continue
		}
		seenNamed = true
		if bound[arg.Name] {
			return nil, false, ev.runtimeErrorf("duplicate argument: %s", arg.Name)
		}
		if !hasParam(closure.Params, arg.Name) {
			return nil, false, ev.runtimeErrorf("unknown parameter: %s", arg.Name)
		}
		th := &HeapThunk{
			Name: arg.Name, Self: callerScope.self, HasSelf: callerScope.hasSelf,
			SuperOffset: callerScope.superOffset, Body: arg.Value,
			Env: captureEnv(callerScope.env, arg.Value.FreeVars()),
		}
		ev.alloc(th)
		if n.TailStrict {
			if _, err := ev.force(th); err != nil {
				return nil, false, err
			}
		}
		env[arg.Name] = th
		bound[arg.Name] = true
	}

	allFilled := true
	for _, p := range closure.Params {
		if bound[p.Name] {
			if t := env[p.Name]; !t.Filled {
				allFilled = false
			}
			continue
		}
		if p.Default == nil {
			return nil, false, ev.runtimeErrorf("missing argument: %s", p.Name)
		}
		// The default's environment is the full argument frame, so
		// defaults may reference other parameters (spec.md §4.F.2).
		dt := &HeapThunk{Name: p.Name, Body: p.Default, Env: env}
		ev.alloc(dt)
		env[p.Name] = dt
		if n.TailStrict {
			if _, err := ev.force(dt); err != nil {
				return nil, false, err
			}
		} else {
			allFilled = false
		}
	}

	return env, allFilled, nil
}

func hasParam(params []ast.Param, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// callBuiltin implements the BUILTIN_FORCE_THUNKS frame of spec.md
// §4.F.2: force every bound argument thunk in declaration order, then
// invoke the native Go implementation on the realized values.
func (ev *Evaluator) callBuiltin(closure *HeapClosure, argEnv Env) (Value, error) {
	ev.pushRoots(func(visit func(HeapEntity)) {
		for _, t := range argEnv {
			visit(t)
		}
	})
	defer ev.popRoots()
	args := make([]Value, len(closure.Params))
	pop := ev.PushValueRoots(args)
	defer pop()
	for i, p := range closure.Params {
		t := argEnv[p.Name]
		v, err := ev.force(t)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	if closure.NativeTarget != "" {
		v, err := ev.callNative(closure.NativeTarget, args)
		return v, ev.asRuntimeError(err)
	}
	impl, ok := builtinTable[closure.BuiltinName]
	if !ok {
		return Value{}, ev.runtimeErrorf("unknown builtin function: %s", closure.BuiltinName)
	}
	v, err := impl(ev, args)
	return v, ev.asRuntimeError(err)
}

// asRuntimeError promotes a plain error (e.g. a builtin's fmt.Errorf type/
// arity failure) into a *RuntimeError carrying a trace captured at this call
// site, per spec.md §7: "RuntimeError: message + a stack trace captured at
// throw". Errors already typed as *RuntimeError or *StaticError pass
// through unchanged.
func (ev *Evaluator) asRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *RuntimeError, *StaticError:
		return err
	default:
		return ev.runtimeErrorf("%s", err)
	}
}

// callNative invokes a host-registered native_callbacks entry (spec.md
// §4.F.14): args must already be forced and primitive.
func (ev *Evaluator) callNative(name string, args []Value) (Value, error) {
	cb, ok := ev.state.ctx.NativeCallbacks[name]
	if !ok {
		return Value{}, ev.runtimeErrorf("unknown native function: %s", name)
	}
	for _, a := range args {
		switch a.Kind {
		case KindArray, KindObject, KindFunction:
			return Value{}, ev.runtimeErrorf("native function %s: arguments must be primitive values, got %s", name, a.Kind)
		}
	}
	return cb.Fn(args)
}

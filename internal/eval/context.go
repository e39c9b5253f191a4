package eval

import "github.com/lumenlang/lumen/internal/ast"

// ManifestMode selects the shape of evaluate's final output (spec.md §4.H,
// §6 "Multi-output wire format").
type ManifestMode int

const (
	ModeRegular ManifestMode = iota
	ModeMulti
	ModeStream
)

// ExtVarBinding is one ext_var/ext_code or tla_var/tla_code entry (spec.md
// §4.F.13, §6).
type ExtVarBinding struct {
	Text   string
	IsCode bool
}

// ImportCallback resolves an import path relative to the importing file's
// directory, per the contract in spec.md §6.
type ImportCallback func(dir, rel string) (content string, foundHere string, err error)

// NativeFunc is a host-registered function reachable from the language via
// `native(name)` (spec.md §4.F.14, §6).
type NativeFunc func(args []Value) (Value, error)

// Context is the evaluator's configuration surface (spec.md §2): it is
// read-only once evaluation begins (spec.md §5 "Shared resource policy").
type Context struct {
	ExtVars         map[string]ExtVarBinding
	NativeCallbacks map[string]NativeCallback
	ImportCallback  ImportCallback
	MaxStack        int
	GCMinObjects    int
	GCGrowthTrigger float64
	MaxTrace        int
	StringOutput    bool
	JPaths          []string
}

// NativeCallback pairs a NativeFunc with the parameter names the spec
// requires to carry through for error messages (spec.md §4.F.14).
type NativeCallback struct {
	Params []string
	Fn     NativeFunc
}

// DefaultContext returns a Context with the spec's documented defaults.
func DefaultContext() *Context {
	return &Context{
		ExtVars:         map[string]ExtVarBinding{},
		NativeCallbacks: map[string]NativeCallback{},
		MaxStack:        500,
		GCMinObjects:    1000,
		GCGrowthTrigger: 2.0,
		MaxTrace:        20,
	}
}

// evalState is the per-run mutable state threaded through Eval: the heap,
// the explicit call stack, the import cache, and the static Context. It
// is distinct from Context because it carries run-scoped state rather
// than embedder configuration.
type evalState struct {
	ctx     *Context
	heap    *Heap
	stack   *CallStack
	cache   *ImportCache
	loader  Loader
	rootEnv Env

	// liveScopes, forcing, and pendingRoots are the evaluator's GC root
	// sources (spec.md §4.A step 1): every scope currently on Eval's Go
	// call stack, every thunk currently being forced, and every
	// partially-built environment/slice a binder is still filling in
	// before it becomes reachable from a scope. See markRoots in
	// evaluator.go.
	liveScopes   []scope
	forcing      []*HeapThunk
	pendingRoots []rootFunc
}

// rootFunc is a GC root source contributed for the lifetime of one
// in-progress binder (bindArgs, evalArray, evalLocal, ...): it visits
// whatever entities that binder has allocated into its environment/slice
// so far, even though the binder hasn't finished and nothing permanent
// references them yet.
type rootFunc func(visit func(HeapEntity))

// Loader lexes/parses/desugars/analyzes source text into a core AST,
// supplied by the pipeline's outer collaborators (spec.md §1's "external
// collaborators"). Kept as an interface so internal/eval never imports
// internal/parser or internal/analyzer directly (grounded on
// internal/interp/options.go's interface-breaks-import-cycle pattern).
type Loader interface {
	Load(file, source string) (ast.Node, error)
}

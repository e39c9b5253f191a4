package lumen

import "github.com/lumenlang/lumen/internal/eval"

// Option configures an Engine at construction time (functional-options
// pattern, grounded on examples/ffi/main.go's dwscript.New(...) call
// shape — see DESIGN.md).
type Option func(*Engine)

// WithMaxStack overrides the maximum number of live CALL frames
// (spec.md §4.B, default 500).
func WithMaxStack(n int) Option {
	return func(e *Engine) { e.ctx.MaxStack = n }
}

// WithGCTuning overrides the heap's collection schedule (spec.md §4.A,
// defaults gc_min_objects=1000, gc_growth_trigger=2.0).
func WithGCTuning(minObjects int, growthTrigger float64) Option {
	return func(e *Engine) {
		e.ctx.GCMinObjects = minObjects
		e.ctx.GCGrowthTrigger = growthTrigger
	}
}

// WithMaxTrace overrides the number of stack-trace entries kept before
// truncation-with-"..." kicks in (spec.md §4.B "Error traces").
func WithMaxTrace(n int) Option {
	return func(e *Engine) { e.ctx.MaxTrace = n }
}

// WithStringOutput switches manifestation to string_output mode: the
// top-level value must be a STRING, emitted verbatim (spec.md §4.H).
func WithStringOutput(enabled bool) Option {
	return func(e *Engine) { e.ctx.StringOutput = enabled }
}

// WithIndent overrides the per-level indentation string used by
// manifestation (default three spaces, matching spec.md §8's scenarios).
func WithIndent(indent string) Option {
	return func(e *Engine) { e.indent = indent }
}

// WithJPaths sets the ordered library search path consulted after the
// importing file's own directory (spec.md §6 "jpaths").
func WithJPaths(paths []string) Option {
	return func(e *Engine) { e.ctx.JPaths = paths }
}

// WithImportCallback overrides the default filesystem-backed import
// resolution with a host-supplied one (spec.md §6 "import_callback").
func WithImportCallback(cb eval.ImportCallback) Option {
	return func(e *Engine) { e.ctx.ImportCallback = cb }
}

// WithExtVar pre-registers an external string variable at construction
// time, equivalent to calling Engine.SetExtVar afterward.
func WithExtVar(key, value string) Option {
	return func(e *Engine) { e.SetExtVar(key, value) }
}

// WithExtCode pre-registers an external code variable at construction
// time, equivalent to calling Engine.SetExtCode afterward.
func WithExtCode(key, code string) Option {
	return func(e *Engine) { e.SetExtCode(key, code) }
}

// WithTLAVar pre-registers a top-level-argument string binding.
func WithTLAVar(key, value string) Option {
	return func(e *Engine) { e.SetTLAVar(key, value) }
}

// WithTLACode pre-registers a top-level-argument code binding.
func WithTLACode(key, code string) Option {
	return func(e *Engine) { e.SetTLACode(key, code) }
}

// Package lumen is the embedder-facing host API (spec.md §6): lifecycle,
// configuration, evaluation entry points, and native-value bridging.
// Grounded on examples/ffi/main.go's `dwscript.New(...)` /
// `engine.RegisterFunction(...)` registration style and
// cmd/dwscript/cmd/run.go's lex->parse->analyze->eval pipeline sequencing
// (see DESIGN.md).
package lumen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lumenlang/lumen/internal/analyzer"
	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/eval"
	_ "github.com/lumenlang/lumen/internal/eval/builtins" // side-effect: registers the std builtin set
	"github.com/lumenlang/lumen/internal/parser"
)

// Mode selects the output shape of Evaluate* (spec.md §6).
type Mode = eval.ManifestMode

const (
	ModeRegular = eval.ModeRegular
	ModeMulti   = eval.ModeMulti
	ModeStream  = eval.ModeStream
)

// Engine owns one interpreter instance: its own heap, stack, import
// cache, and registries (spec.md §5). Create with New, discard when done
// — Close exists for API symmetry with hosts that pool engines, but this
// implementation holds nothing beyond Go-GC'd memory.
type Engine struct {
	ctx     *eval.Context
	tlaVars map[string]eval.ExtVarBinding
	indent  string
}

// New creates an Engine with opts applied over spec.md's documented
// defaults (max_stack=500, gc_min_objects=1000, gc_growth_trigger=2.0).
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		ctx:     eval.DefaultContext(),
		tlaVars: map[string]eval.ExtVarBinding{},
		indent:  "   ",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ctx.ImportCallback == nil {
		e.ctx.ImportCallback = defaultImportCallback(e.ctx.JPaths)
	}
	return e, nil
}

// Close releases any resources held by the engine (spec.md §6
// "create(), destroy()"). A no-op in this implementation.
func (e *Engine) Close() {}

// RegisterNative installs a host function reachable from the language via
// `native(name)` (spec.md §4.F.14, §6).
func (e *Engine) RegisterNative(name string, params []string, fn eval.NativeFunc) {
	e.ctx.NativeCallbacks[name] = eval.NativeCallback{Params: params, Fn: fn}
}

// SetExtVar binds an external string variable (spec.md §4.F.13, §6).
func (e *Engine) SetExtVar(key, value string) { e.ctx.ExtVars[key] = eval.ExtVarBinding{Text: value} }

// SetExtCode binds an external variable whose text is itself lumen code,
// evaluated lazily on first demand (spec.md §4.F.13).
func (e *Engine) SetExtCode(key, code string) {
	e.ctx.ExtVars[key] = eval.ExtVarBinding{Text: code, IsCode: true}
}

// SetTLAVar / SetTLACode bind a top-level argument: if the evaluated file
// is itself a function, it is applied to these bindings before
// manifestation, with parameter defaults filling any unbound parameter
// (spec.md §6 "tla_var/tla_code").
func (e *Engine) SetTLAVar(key, value string) { e.tlaVars[key] = eval.ExtVarBinding{Text: value} }
func (e *Engine) SetTLACode(key, code string) {
	e.tlaVars[key] = eval.ExtVarBinding{Text: code, IsCode: true}
}

// EvaluateFile reads and evaluates a lumen file, relative imports
// resolving against its containing directory.
func (e *Engine) EvaluateFile(path string, mode Mode) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("lumen: reading %s: %w", path, err)
	}
	return e.evaluate(path, filepath.Dir(path), string(content), mode)
}

// EvaluateSnippet evaluates inline source text; relative imports resolve
// against the current working directory.
func (e *Engine) EvaluateSnippet(source string, mode Mode) (string, error) {
	return e.evaluate("<snippet>", ".", source, mode)
}

func (e *Engine) evaluate(filename, dir, source string, mode Mode) (string, error) {
	loader := pipelineLoader{}
	node, err := loader.Load(filename, source)
	if err != nil {
		return "", err
	}

	ev := eval.New(e.ctx, loader)
	v, err := ev.EvalRoot(dir, node)
	if err != nil {
		return "", err
	}

	if v.Kind == eval.KindFunction {
		args, err := e.resolveTLA(ev, loader)
		if err != nil {
			return "", err
		}
		v, err = ev.ApplyNamed(v, args)
		if err != nil {
			return "", err
		}
	}

	if e.ctx.StringOutput {
		return ev.StringOutput(v)
	}

	switch mode {
	case eval.ModeMulti:
		docs, err := ev.MultiManifest(v, e.indent)
		if err != nil {
			return "", err
		}
		return encodeMulti(docs), nil
	case eval.ModeStream:
		docs, err := ev.StreamManifest(v, e.indent)
		if err != nil {
			return "", err
		}
		return encodeStream(docs), nil
	default:
		return ev.Manifest(v, e.indent)
	}
}

func (e *Engine) resolveTLA(ev *eval.Evaluator, loader pipelineLoader) (map[string]eval.Value, error) {
	out := make(map[string]eval.Value, len(e.tlaVars))
	for name, binding := range e.tlaVars {
		if !binding.IsCode {
			out[name] = ev.NewString(binding.Text)
			continue
		}
		node, err := loader.Load("<tla:"+name+">", binding.Text)
		if err != nil {
			return nil, err
		}
		v, err := ev.EvalRoot(".", node)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// pipelineLoader implements eval.Loader by running the lex -> parse ->
// analyze pipeline (spec.md §1's external collaborators), which is what
// every evaluator.Load call (top-level file, import, extVar/TLA code)
// goes through.
type pipelineLoader struct{}

func (pipelineLoader) Load(file, source string) (ast.Node, error) {
	node, err := parser.ParseFile(file, source)
	if err != nil {
		return nil, &eval.StaticError{Message: err.Error()}
	}
	node, err = analyzer.Analyze(node)
	if err != nil {
		return nil, &eval.StaticError{Message: err.Error()}
	}
	return node, nil
}

// encodeMulti renders the `multi` wire format (spec.md §6): a sequence of
// filename\0json\n\0 records, filenames sorted for determinism, with a
// trailing extra NUL terminating the whole stream.
func encodeMulti(docs map[string]string) string {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte(0)
		sb.WriteString(docs[name])
		sb.WriteByte(0)
	}
	sb.WriteByte(0)
	return sb.String()
}

// encodeStream renders the `stream` wire format (spec.md §6): a sequence
// of json\n\0 records, with a trailing extra NUL.
func encodeStream(docs []string) string {
	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc)
		sb.WriteByte(0)
	}
	sb.WriteByte(0)
	return sb.String()
}

// defaultImportCallback implements spec.md §6's import-callback contract:
// an absolute rel is used as-is; otherwise dir+rel is tried first, then
// each jpath in order. Empty string or a trailing "/" is an error.
func defaultImportCallback(jpaths []string) eval.ImportCallback {
	return func(dir, rel string) (string, string, error) {
		if rel == "" || strings.HasSuffix(rel, "/") {
			return "", "", fmt.Errorf("invalid import path %q", rel)
		}
		if filepath.IsAbs(rel) {
			content, err := os.ReadFile(rel)
			if err != nil {
				return "", "", err
			}
			return string(content), rel, nil
		}
		candidates := append([]string{dir}, jpaths...)
		var lastErr error
		for _, base := range candidates {
			full := filepath.Join(base, rel)
			content, err := os.ReadFile(full)
			if err == nil {
				return string(content), full, nil
			}
			lastErr = err
		}
		return "", "", fmt.Errorf("couldn't open import %q: %w", rel, lastErr)
	}
}

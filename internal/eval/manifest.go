package eval

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/tidwall/pretty"
)

// manifestToString renders v as a single-line JSON fragment, used for
// `+`-string coercion and `error` message coercion (spec.md §4.F.4). It
// never indents and ignores multiline, matching manifestJson(multiline=false).
func (ev *Evaluator) manifestToString(v Value, multiline bool, indent string) (string, error) {
	var sb strings.Builder
	if err := ev.manifestInto(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Manifest renders v as indented JSON text ending in one newline (spec.md
// §4.H). indent is the per-level indentation string (e.g. "   "); an empty
// indent falls back to three spaces. Width 0 keeps tidwall/pretty from
// folding short arrays onto one line, so every array element and object
// field is on its own line.
func (ev *Evaluator) Manifest(v Value, indent string) (string, error) {
	var sb strings.Builder
	if err := ev.manifestInto(&sb, v); err != nil {
		return "", err
	}
	opts := &pretty.Options{Indent: indent, SortKeys: false, Width: 0}
	if indent == "" {
		opts.Indent = "   "
	}
	out := pretty.PrettyOptions([]byte(sb.String()), opts)
	return strings.TrimSuffix(string(spaceEmptyContainers(out)), "\n") + "\n", nil
}

// spaceEmptyContainers rewrites bare "[]"/"{}" runs outside of JSON string
// literals to "[ ]"/"{ }" (spec.md §4.H: "`[]` → `[ ]`", "`{}` → `{ }`").
// tidwall/pretty always collapses empty containers to the bare form
// regardless of the input spacing, so this runs as a pass over its output.
func spaceEmptyContainers(b []byte) []byte {
	out := make([]byte, 0, len(b)+8)
	inString := false
	escaped := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if (c == '[' || c == '{') && i+1 < len(b) && b[i+1] == c+2 {
			out = append(out, c, ' ', b[i+1])
			i++
			continue
		}
		out = append(out, c)
	}
	return out
}

// manifestInto writes v as compact JSON. Fields are force-evaluated and
// recursively serialized in strict lexicographic codepoint order
// (Testable Property 3); hidden fields are suppressed (Testable Property
// 4); a function value is an error; invariants run exactly once per
// object (tracked by runInvariantsOnce, shared with field indexing).
func (ev *Evaluator) manifestInto(sb *strings.Builder, v Value) error {
	switch v.Kind {
	case KindNull:
		sb.WriteString("null")
		return nil
	case KindBoolean:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
		return nil
	case KindDouble:
		sb.WriteString(formatNumber(v.Num))
		return nil
	case KindString:
		b, _ := json.Marshal(v.Ref.(*HeapString).String())
		sb.Write(b)
		return nil
	case KindArray:
		return ev.manifestArray(sb, v)
	case KindObject:
		return ev.manifestObject(sb, v)
	case KindFunction:
		return ev.runtimeErrorf("tried to manifest a function value")
	default:
		return ev.runtimeErrorf("internal error: unhandled value kind in manifest")
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func (ev *Evaluator) manifestArray(sb *strings.Builder, v Value) error {
	arr := v.Ref.(*HeapArray)
	if len(arr.Elements) == 0 {
		sb.WriteString("[ ]")
		return nil
	}
	sb.WriteByte('[')
	for i, t := range arr.Elements {
		if i > 0 {
			sb.WriteByte(',')
		}
		elem, err := ev.force(t)
		if err != nil {
			return err
		}
		if err := ev.manifestInto(sb, elem); err != nil {
			return err
		}
	}
	sb.WriteByte(']')
	return nil
}

func (ev *Evaluator) manifestObject(sb *strings.Builder, v Value) error {
	if err := ev.runInvariantsOnce(v); err != nil {
		return err
	}
	names := visibleFieldNames(v)
	leaves := leavesOf(v)
	var visible []string
	for _, name := range names {
		if resolveVisibility(leaves, name) != ast.HideHidden {
			visible = append(visible, name)
		}
	}
	sort.Strings(visible)

	if len(visible) == 0 {
		sb.WriteString("{ }")
		return nil
	}

	sb.WriteByte('{')
	for i, name := range visible {
		if i > 0 {
			sb.WriteByte(',')
		}
		keyBytes, _ := json.Marshal(name)
		sb.Write(keyBytes)
		sb.WriteByte(':')
		fieldVal, err := ev.objectIndex(v, name, 0)
		if err != nil {
			return err
		}
		if err := ev.manifestInto(sb, fieldVal); err != nil {
			return err
		}
	}
	sb.WriteByte('}')
	return nil
}

// MultiManifest implements the `multi` output mode of spec.md §4.H/§6:
// the top level must be an OBJECT, producing filename -> JSON.
func (ev *Evaluator) MultiManifest(v Value, indent string) (map[string]string, error) {
	if v.Kind != KindObject {
		return nil, ev.runtimeErrorf("multi mode requires an object at the top level, got %s", v.Kind)
	}
	if err := ev.runInvariantsOnce(v); err != nil {
		return nil, err
	}
	names := visibleFieldNames(v)
	leaves := leavesOf(v)
	out := make(map[string]string, len(names))
	for _, name := range names {
		if resolveVisibility(leaves, name) == ast.HideHidden {
			continue
		}
		fieldVal, err := ev.objectIndex(v, name, 0)
		if err != nil {
			return nil, err
		}
		text, err := ev.Manifest(fieldVal, indent)
		if err != nil {
			return nil, err
		}
		out[name] = text
	}
	return out, nil
}

// StreamManifest implements the `stream` output mode: the top level must
// be an ARRAY, producing one JSON document per element.
func (ev *Evaluator) StreamManifest(v Value, indent string) ([]string, error) {
	if v.Kind != KindArray {
		return nil, ev.runtimeErrorf("stream mode requires an array at the top level, got %s", v.Kind)
	}
	arr := v.Ref.(*HeapArray)
	out := make([]string, 0, len(arr.Elements))
	for _, t := range arr.Elements {
		elem, err := ev.force(t)
		if err != nil {
			return nil, err
		}
		text, err := ev.Manifest(elem, indent)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// StringOutput implements `string_output` mode: the top level must be a
// STRING, emitted verbatim without JSON escaping.
func (ev *Evaluator) StringOutput(v Value) (string, error) {
	if v.Kind != KindString {
		return "", ev.runtimeErrorf("string_output mode requires a string at the top level, got %s", v.Kind)
	}
	return v.Ref.(*HeapString).String() + "\n", nil
}


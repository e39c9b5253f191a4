package host

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/eval"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ToEval allocates v onto ev's heap, with array elements and object fields
// held in pre-filled thunks. The evaluator's native() dispatch does not
// call it: a native callback returns an eval.Value directly.
func ToEval(ev *eval.Evaluator, v *Value) (eval.Value, error) {
	switch v.Kind() {
	case KindNull:
		return eval.Null, nil
	case KindBoolean:
		b, _ := v.BoolValue()
		return eval.Bool(b), nil
	case KindNumber:
		n, _ := v.NumberValue()
		return ev.FiniteNumber(n)
	case KindString:
		s, _ := v.StringValue()
		return ev.NewString(s), nil
	case KindArray:
		elems := make([]eval.Value, len(v.ArrayElements()))
		pop := ev.PushValueRoots(elems)
		defer pop()
		for i, e := range v.ArrayElements() {
			ev2, err := ToEval(ev, e)
			if err != nil {
				return eval.Value{}, err
			}
			elems[i] = ev2
		}
		return ev.NewArrayOfValues(elems), nil
	case KindObject:
		fields := make(map[string]eval.Value, len(v.ObjectKeys()))
		pop := ev.PushValueMapRoots(fields)
		defer pop()
		for _, k := range v.ObjectKeys() {
			child, _ := v.ObjectGet(k)
			cv, err := ToEval(ev, child)
			if err != nil {
				return eval.Value{}, err
			}
			fields[k] = cv
		}
		return ev.NewObjectOfValues(fields, v.ObjectKeys()), nil
	default:
		return eval.Value{}, fmt.Errorf("host: unhandled value kind")
	}
}

// FromEval converts an already-forced, primitive-only eval.Value back to
// a host Value; a compound value is an error. The evaluator's native()
// dispatch does not call it: a native callback receives its forced
// arguments as eval.Values.
func FromEval(ev *eval.Evaluator, v eval.Value) (*Value, error) {
	switch v.Kind {
	case eval.KindNull:
		return NewNull(), nil
	case eval.KindBoolean:
		return NewBoolean(v.Bool), nil
	case eval.KindDouble:
		return NewNumber(v.Num), nil
	case eval.KindString:
		return NewString(ev.StringValue(v)), nil
	default:
		return nil, fmt.Errorf("native call argument must be a primitive value, got %s", v.Kind)
	}
}

// ToJSON manifests v (any value, including compound ones) to a JSON text
// via the evaluator's own manifestation procedure.
func ToJSON(ev *eval.Evaluator, v eval.Value, indent string) (string, error) {
	return ev.Manifest(v, indent)
}

// FromJSON parses arbitrary JSON text into a host Value tree using
// gjson, then bridges it onto ev's heap. ext_code and tla_code bindings
// do not go through it: pkg/lumen loads their text as lumen source.
func FromJSON(ev *eval.Evaluator, jsonText string) (eval.Value, error) {
	if !gjson.Valid(jsonText) {
		return eval.Value{}, fmt.Errorf("invalid JSON: %s", jsonText)
	}
	v := fromGJSON(gjson.Parse(jsonText))
	return ToEval(ev, v)
}

func fromGJSON(r gjson.Result) *Value {
	switch r.Type {
	case gjson.Null:
		return NewNull()
	case gjson.True:
		return NewBoolean(true)
	case gjson.False:
		return NewBoolean(false)
	case gjson.Number:
		return NewNumber(r.Num)
	case gjson.String:
		return NewString(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			out := NewArray()
			r.ForEach(func(_, elem gjson.Result) bool {
				out.ArrayAppend(fromGJSON(elem))
				return true
			})
			return out
		}
		out := NewObject()
		r.ForEach(func(key, elem gjson.Result) bool {
			out.ObjectSet(key.String(), fromGJSON(elem))
			return true
		})
		return out
	default:
		return NewNull()
	}
}

// SetField sets a single dotted path in jsonText to the raw JSON valueJSON,
// using sjson — a convenience for native callbacks that patch one field
// of a larger JSON document rather than rebuilding it via host.Value.
func SetField(jsonText, path, valueJSON string) (string, error) {
	return sjson.SetRaw(jsonText, path, valueJSON)
}

package policy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FromJSON converts a decoded JSON value into a policy Value. Callers that
// need integers preserved exactly (rather than collapsed to float64) should
// decode with a json.Decoder configured via UseNumber() before calling this,
// matching ParseRequestJSON below.
func FromJSON(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(val)
	case string:
		return String(val)
	case json.Number:
		return numberFromJSON(val)
	case float64:
		return Float(val)
	case []any:
		elems := make([]Value, len(val))
		for i, e := range val {
			elems[i] = FromJSON(e)
		}
		return List(elems)
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, e := range val {
			m[k] = FromJSON(e)
		}
		return NewMap(m)
	default:
		return String(fmt.Sprintf("%v", val))
	}
}

// numberFromJSON classifies a json.Number as the grammar's integer/float
// distinction (§4.2.1): no decimal point and it fits an int64 is an Int,
// otherwise it is a Float.
func numberFromJSON(n json.Number) Value {
	if !strings.Contains(n.String(), ".") {
		if i, err := n.Int64(); err == nil {
			return Int(i)
		}
	}
	f, err := n.Float64()
	if err != nil {
		return String(n.String())
	}
	return Float(f)
}

// ParseRequestJSON decodes raw JSON into a string-keyed Value map, the shape
// callers build `Bindings.Req`/`vars` from. Numbers decode via json.Number
// so whole numbers become policy integers instead of always floating.
func ParseRequestJSON(data []byte) (map[string]Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing request JSON: %w", err)
	}

	out := make(map[string]Value, len(raw))
	for k, v := range raw {
		out[k] = FromJSON(v)
	}
	return out, nil
}

// ToJSON converts v into a plain Go value (bool, int64, float64, string,
// []any, map[string]any, or nil) suitable for json.Marshal.
func (v Value) ToJSON() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToJSON()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.ToJSON()
		}
		return out
	default:
		return nil
	}
}

// Package policy implements the capability-token policy language: the
// tokenizer, recursive-descent parser, and gas/depth-bounded tree-walk
// evaluator described for the S-expression policy format.
package policy

import (
	"fmt"
	"strconv"
)

// Kind tags the dynamic type carried by a Value.
type Kind int

// Value kinds. The first five mirror the AST value types from the policy
// grammar (bool, int, float, string, list); KindMap is a Go-side extension
// used only for host-supplied bindings (the request mapping and any vars
// entries a host wires up as nested objects) — it never comes out of the
// parser.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is a tagged AST/runtime value. The policy language is dynamically
// typed; Value is the statically-typed stand-in for that dynamism so the
// evaluator never relies on reflection or duck typing.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// Null is the empty/absent value. An empty list and a failed lookup both
// evaluate to Null.
var Null = Value{kind: KindNull}

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string value (also used for symbols before resolution).
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps an ordered sequence of values.
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

// NewMap wraps a string-keyed mapping, used to represent the request
// binding and any host-supplied nested-object vars entries.
func NewMap(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsString reports whether v carries a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsList reports whether v carries a sequence.
func (v Value) IsList() bool { return v.kind == KindList }

// AsString returns the underlying string and whether v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsList returns the underlying sequence and whether v is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsBool returns the underlying boolean and whether v is a boolean.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsMap returns the underlying mapping and whether v is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// GetField implements (get obj "key"): if v is a mapping and key is
// present, returns the mapped value; otherwise Null.
func (v Value) GetField(key string) Value {
	m, ok := v.AsMap()
	if !ok {
		return Null
	}
	if val, ok := m[key]; ok {
		return val
	}
	return Null
}

// Truthy implements the policy language's truthiness rule: null is false,
// booleans are themselves, numbers are nonzero, everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString, KindList:
		return true
	default:
		return true
	}
}

// Float64 coerces v to a float64 for the comparison operators: numbers keep
// their value, a string parses as a decimal if it can, and everything else
// coerces to 0.0.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	case KindString:
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f
		}
		return 0.0
	default:
		return 0.0
	}
}

// Str renders v the way the policy language's (before …) and string-coercing
// operators do: strings pass through, everything else uses Go's %v.
func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindNull:
		return ""
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Str()
		}
		return fmt.Sprintf("%v", parts)
	default:
		return ""
	}
}

// Equal implements the structural equality used by the (=) operator:
// values of differing kinds (other than the int/float numeric pair) are
// never equal, and lists compare element-wise.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Allow cross comparison between the two numeric kinds.
		if (a.kind == KindInt || a.kind == KindFloat) && (b.kind == KindInt || b.kind == KindFloat) {
			return a.Float64() == b.Float64()
		}
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Contains reports whether lst (if it is a list) contains an element equal
// to v. Non-list values never contain anything, per (member)/(in) semantics.
func Contains(lst, v Value) bool {
	elems, ok := lst.AsList()
	if !ok {
		return false
	}
	for _, e := range elems {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

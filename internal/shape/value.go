// Package shape decodes loosely typed JSON into a small tagged union and
// coerces it into the container shapes the builder expects.
package shape

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// Value is a decoded JSON value. Scalars hold nil, bool, string or json.Number.
type Value struct {
	kind   Kind
	obj    *Object
	seq    []Value
	scalar any
}

// Object keeps keys in document order.
type Object struct {
	keys   []string
	fields map[string]Value
}

// Null is the zero Value.
var Null = Value{}

func NewObject() *Object {
	return &Object{fields: map[string]Value{}}
}

func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

func SequenceValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

func ScalarValue(v any) Value { return Value{kind: KindScalar, scalar: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// Object returns the keyed object, or nil when v is not one.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Items returns the elements of a sequence, or nil.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// IsEmpty reports null, "", {} and [].
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindObject:
		return v.obj == nil || v.obj.Len() == 0
	case KindSequence:
		return len(v.seq) == 0
	default:
		return v.scalar == nil || v.Text() == ""
	}
}

// Text renders scalars as trimmed strings. Containers and null yield "".
func (v Value) Text() string {
	if v.kind != KindScalar {
		return ""
	}
	switch s := v.scalar.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

// Bool accepts JSON booleans, numbers and the usual yes/no words in Spanish
// and English. Anything else yields def.
func (v Value) Bool(def bool) bool {
	if v.kind != KindScalar {
		return def
	}
	switch s := v.scalar.(type) {
	case bool:
		return s
	case json.Number:
		f, err := s.Float64()
		if err != nil {
			return def
		}
		return f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "si", "sí", "yes", "1", "verdadero":
			return true
		case "false", "no", "0", "falso":
			return false
		}
	}
	return def
}

// Int parses integral scalars such as 30, "30" or "30 días".
func (v Value) Int() (int, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	if n, ok := v.scalar.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	}
	digits := strings.Builder{}
	for _, r := range v.Text() {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	i, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return i, true
}

// Interface converts v back into plain Go values (map[string]any, []any, ...).
func (v Value) Interface() any {
	switch v.kind {
	case KindObject:
		m := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.keys {
			m[k] = v.obj.fields[k].Interface()
		}
		return m
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Interface()
		}
		return out
	default:
		return v.scalar
	}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Text is a shorthand for Get(key).Text().
func (o *Object) Text(key string) string {
	v, _ := o.Get(key)
	return v.Text()
}

// Set appends key, or replaces its value in place if it already exists.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

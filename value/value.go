// Package value implements the dynamic value union carried across the
// control boundary in both directions: instruction batches coming in and
// node events going out.
//
// Values are immutable once constructed. Constructors copy slice and map
// arguments, and accessors return copies, so no aliasing exists between
// the host side and the engine side of the boundary. Narrowing a value to
// a kind other than its active one fails with ErrTypeMismatch instead of
// coercing.
package value

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the active variant of a Value.
type Kind uint8

// Value kinds.
const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindFloats
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFloats:
		return "floats"
	}
	return "unknown"
}

// ErrTypeMismatch is returned when a Value is narrowed to a kind other
// than its active one.
var ErrTypeMismatch = errors.New("value: type mismatch")

// Value is a tagged union over the kinds above. The zero value is
// Undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	a    []Value
	o    map[string]Value
	f    []float32
}

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{}
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number returns a double-precision numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array returns an array value holding copies of the provided elements.
func Array(elems ...Value) Value {
	a := make([]Value, len(elems))
	copy(a, elems)
	return Value{kind: KindArray, a: a}
}

// Object returns an object value holding copies of the provided fields.
func Object(fields map[string]Value) Value {
	o := make(map[string]Value, len(fields))
	for k, v := range fields {
		o[k] = v
	}
	return Value{kind: KindObject, o: o}
}

// Floats returns a raw float buffer value holding a copy of data.
func Floats(data []float32) Value {
	f := make([]float32, len(data))
	copy(f, data)
	return Value{kind: KindFloats, f: f}
}

// Kind returns the active kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsUndefined reports whether the value is undefined.
func (v Value) IsUndefined() bool {
	return v.kind == KindUndefined
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: have %v, want %v", ErrTypeMismatch, v.kind, want)
}

// AsBool narrows the value to a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

// AsNumber narrows the value to a float64.
func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, v.mismatch(KindNumber)
	}
	return v.n, nil
}

// AsString narrows the value to a string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

// AsArray narrows the value to a slice of values. The returned slice is
// a copy.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.mismatch(KindArray)
	}
	a := make([]Value, len(v.a))
	copy(a, v.a)
	return a, nil
}

// AsObject narrows the value to a string-keyed map. The returned map is
// a copy.
func (v Value) AsObject() (map[string]Value, error) {
	if v.kind != KindObject {
		return nil, v.mismatch(KindObject)
	}
	o := make(map[string]Value, len(v.o))
	for k, e := range v.o {
		o[k] = e
	}
	return o, nil
}

// AsFloats narrows the value to a float32 buffer. The returned slice is
// a copy.
func (v Value) AsFloats() ([]float32, error) {
	if v.kind != KindFloats {
		return nil, v.mismatch(KindFloats)
	}
	f := make([]float32, len(v.f))
	copy(f, v.f)
	return f, nil
}

// Len returns the element count for arrays, objects and float buffers,
// and zero for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.a)
	case KindObject:
		return len(v.o)
	case KindFloats:
		return len(v.f)
	}
	return 0
}

// At returns the array element at index i, or Undefined if v is not an
// array or i is out of range.
func (v Value) At(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.a) {
		return Undefined()
	}
	return v.a[i]
}

// Field returns the object field for key, or Undefined if v is not an
// object or the key is absent.
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Undefined()
	}
	e, ok := v.o[key]
	if !ok {
		return Undefined()
	}
	return e
}

// Equal reports structural equality of two values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.a) != len(b.a) {
			return false
		}
		for i := range a.a {
			if !Equal(a.a[i], b.a[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.o) != len(b.o) {
			return false
		}
		for k, av := range a.o {
			bv, ok := b.o[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindFloats:
		if len(a.f) != len(b.f) {
			return false
		}
		for i := range a.f {
			if a.f[i] != b.f[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String returns a readable representation for logs and errors.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindUndefined:
		sb.WriteString("undefined")
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.n, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.a {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.write(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		keys := make([]string, 0, len(v.o))
		for k := range v.o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			e := v.o[k]
			e.write(sb)
		}
		sb.WriteByte('}')
	case KindFloats:
		sb.WriteString("floats[")
		sb.WriteString(strconv.Itoa(len(v.f)))
		sb.WriteByte(']')
	}
}

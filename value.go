// FILE: lixenwraith/dotenv/value.go
package dotenv

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a typed configuration value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	a    []Value
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value holding a copy of vs
func Array(vs ...Value) Value {
	a := make([]Value, len(vs))
	copy(a, vs)
	return Value{kind: KindArray, a: a}
}

// ValueOf converts a Go value into a Value.
// Unsigned integers above math.MaxInt64 and unknown types become strings.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Value:
		if x == nil {
			return Null()
		}
		return *x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case time.Time:
		return String(x.Format(time.RFC3339))
	case time.Duration:
		return String(x.String())
	case []Value:
		return Array(x...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return String(strconv.FormatUint(u, 10))
		}
		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = ValueOf(rv.Index(i).Interface())
		}
		return Value{kind: KindArray, a: items}
	case reflect.Ptr:
		if rv.IsNil() {
			return Null()
		}
		return ValueOf(rv.Elem().Interface())
	}

	if s, ok := v.(fmt.Stringer); ok {
		return String(s.String())
	}
	return String(fmt.Sprintf("%v", v))
}

// Kind returns the variant of v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the floating point payload
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string payload
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns a copy of the array payload
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	a := make([]Value, len(v.a))
	copy(a, v.a)
	return a, true
}

// Interface returns the payload as a plain Go value:
// nil, bool, int64, float64, string or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.a))
		for i, item := range v.a {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// String returns the textual form of v, used for interpolation and messages.
// Null renders empty, arrays render comma-joined.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.a))
		for i, item := range v.a {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// GoString renders v with its kind, for debugging
func (v Value) GoString() string {
	if v.kind == KindString {
		return fmt.Sprintf("string(%q)", v.s)
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// Equal reports strict equality: same kind and same payload.
// Int(1) and Float(1) are not equal, neither are String("1") and Int(1).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.a) != len(other.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(other.a[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsEmpty reports whether v counts as empty:
// null, false, 0, 0.0, "", "0" and the empty array.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return !v.b
	case KindInt:
		return v.i == 0
	case KindFloat:
		return v.f == 0
	case KindString:
		return v.s == "" || v.s == "0"
	case KindArray:
		return len(v.a) == 0
	}
	return true
}

// numericPattern matches an optionally signed integer or decimal
var numericPattern = regexp.MustCompile(`^\+?-?(\d+)(\.\d*)?$`)

// Coerce maps a raw value to a typed scalar.
// Keyword matching is case-insensitive on the whole string; numeric text whose
// integer part does not fit int64 stays a string.
func Coerce(raw string) Value {
	if raw == "" {
		return String("")
	}

	switch strings.ToLower(raw) {
	case "true", "yes", "on":
		return Bool(true)
	case "false", "no", "off":
		return Bool(false)
	case "null":
		return Null()
	}

	if v, ok := coerceNumeric(raw); ok {
		return v
	}
	return String(raw)
}

// coerceNumeric converts text matching numericPattern into Int or Float
func coerceNumeric(raw string) (Value, bool) {
	m := numericPattern.FindStringSubmatch(raw)
	if m == nil {
		return Value{}, false
	}

	negative := strings.Contains(raw[:len(raw)-len(m[1])-len(m[2])], "-")
	intPart := m[1]
	if negative {
		intPart = "-" + intPart
	}

	i, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Out of int64 range
		return Value{}, false
	}

	if m[2] == "" {
		return Int(i), true
	}

	f, err := strconv.ParseFloat(intPart+m[2], 64)
	if err != nil {
		return Value{}, false
	}
	return Float(f), true
}

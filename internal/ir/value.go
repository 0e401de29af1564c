package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a dynamically typed field value.
// Only Null, Bool, Number, String, and Array implement this.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents JSON null (and SQL NULL for a missing EAV row).
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) irValue() {}

// Number represents a numeric value. All numbers are float64 so that native
// REAL/INTEGER columns and JSON numbers compare the same way.
type Number float64

func (Number) irValue() {}

// String represents a string value.
type String string

func (String) irValue() {}

// Array represents an ordered list of values (labels, multiselect choices,
// in/not_in operands).
type Array []Value

func (Array) irValue() {}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// FromAny converts a Go value to a Value.
//
// Accepts the shapes produced by encoding/json and yaml.v3 decoding (nil,
// bool, float64, int, string, []any) plus typed slices and every integer
// width. Maps and structs are rejected: a field value is never an object.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case float64:
		return numberOf(val)
	case float32:
		return numberOf(float64(val))
	case int:
		return Number(val), nil
	case int8:
		return Number(val), nil
	case int16:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint:
		return Number(val), nil
	case uint8:
		return Number(val), nil
	case uint16:
		return Number(val), nil
	case uint32:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return numberOf(f)
	case []any:
		return arrayOf(val)
	case []string:
		arr := make(Array, len(val))
		for i, s := range val {
			arr[i] = String(s)
		}
		return arr, nil
	case []int:
		arr := make(Array, len(val))
		for i, n := range val {
			arr[i] = Number(n)
		}
		return arr, nil
	case []int64:
		arr := make(Array, len(val))
		for i, n := range val {
			arr[i] = Number(n)
		}
		return arr, nil
	case []float64:
		arr := make(Array, len(val))
		for i, f := range val {
			n, err := numberOf(f)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = n
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

func numberOf(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number: %v", f)
	}
	return Number(f), nil
}

func arrayOf(vals []any) (Value, error) {
	arr := make(Array, len(vals))
	for i, elem := range vals {
		v, err := FromAny(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		arr[i] = v
	}
	return arr, nil
}

// DecodeJSON decodes JSON into a Value. Numbers are decoded via json.Number so
// large integers survive until the caller picks a kind.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// MarshalValue marshals a Value to JSON bytes.
// Output is deterministic: numbers use the shortest exact representation and
// HTML characters are not escaped.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Number:
		buf.WriteString(strconv.FormatFloat(float64(val), 'f', -1, 64))
	case String:
		s, err := marshalCanonicalString(string(val))
		if err != nil {
			return err
		}
		buf.Write(s)
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
	return nil
}

// Format renders a value for log lines and diagnostics.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return strconv.Quote(string(val))
	case Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		data, err := MarshalValue(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ToAny converts a Value back to plain Go values (nil, bool, float64,
// string, []any).
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

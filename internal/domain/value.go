package domain

import (
	"encoding/json"
	"math"
)

// Value is a decoded variable: either a Scalar leaf or an Array of values.
type Value interface {
	// Native converts the value to plain Go data (scalars and []any) for
	// serializers that do not know about Value.
	Native() any

	isValue()
}

// Scalar is a single number, string, or nil.
type Scalar struct {
	V any
}

// Array is an ordered sequence of values.
type Array []Value

// Null is the value produced for variables that cannot be decoded.
var Null = Scalar{}

func (Scalar) isValue() {}
func (Array) isValue()  {}

// Native returns the scalar payload. NaN and infinite floats become nil.
func (s Scalar) Native() any {
	switch v := s.V.(type) {
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	return s.V
}

// MarshalJSON encodes the payload; values JSON cannot represent become null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Native())
}

// Native converts every element recursively.
func (a Array) Native() any {
	out := make([]any, len(a))
	for i, v := range a {
		out[i] = v.Native()
	}
	return out
}

// Text returns the string held by v when v is a text Scalar.
func Text(v Value) (string, bool) {
	s, ok := v.(Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.V.(string)
	return str, ok
}

// Float converts a numeric Scalar to float64.
func Float(v Value) (float64, bool) {
	s, ok := v.(Scalar)
	if !ok {
		return 0, false
	}
	return ToFloat(s.V)
}

// ToFloat converts any Go numeric leaf to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int8:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int16:
		return float64(n), true
	case uint16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind discriminates the scalar kinds a Value can hold
type ValueKind string

const (
	KindReal   ValueKind = "real"
	KindInt    ValueKind = "int"
	KindBool   ValueKind = "bool"
	KindString ValueKind = "string"
)

// Value is a scalar exchanged between the optimization framework and the
// CAD model. Kind decides which field is meaningful; use the constructors
// rather than building literals.
type Value struct {
	Kind ValueKind
	Real float64
	Int  int
	Bool bool
	Str  string
}

// RealValue creates a real-valued scalar
func RealValue(f float64) Value {
	return Value{Kind: KindReal, Real: f}
}

// IntValue creates an integer-valued scalar
func IntValue(n int) Value {
	return Value{Kind: KindInt, Int: n}
}

// BoolValue creates a boolean-valued scalar
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// StrValue creates a string-valued scalar
func StrValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ValueFromAny converts a dynamically typed scalar (as produced by JSON or
// YAML decoding) into a Value.
func ValueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case bool:
		return BoolValue(t), nil
	case string:
		return StrValue(t), nil
	case int:
		return IntValue(t), nil
	case int64:
		return IntValue(int(t)), nil
	case float64:
		return RealValue(t), nil
	case float32:
		return RealValue(float64(t)), nil
	case json.Number:
		if n, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return IntValue(int(n)), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return RealValue(f), nil
	default:
		return Value{}, fmt.Errorf("value must be a scalar, got %T", raw)
	}
}

// Float returns the value as a float64. Integer values widen; other kinds
// report false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindReal:
		return v.Real, true
	case KindInt:
		return float64(v.Int), true
	default:
		return 0, false
	}
}

// Any returns the value as its native Go type
func (v Value) Any() any {
	switch v.Kind {
	case KindReal:
		return v.Real
	case KindInt:
		return v.Int
	case KindBool:
		return v.Bool
	case KindString:
		return v.Str
	default:
		return nil
	}
}

// Coerce converts the value to the natural kind of the given parameter
// type. Conversions that would invent meaning (string to real, bool to
// real) fail.
func (v Value) Coerce(pt ParamType) (Value, error) {
	switch pt {
	case ParamDimension, ParamReal:
		f, ok := v.Float()
		if !ok {
			return Value{}, fmt.Errorf("cannot use %s value as %s", v.Kind, pt)
		}
		return RealValue(f), nil
	case ParamInteger:
		switch v.Kind {
		case KindInt:
			return v, nil
		case KindReal:
			return IntValue(int(math.Round(v.Real))), nil
		default:
			return Value{}, fmt.Errorf("cannot use %s value as %s", v.Kind, pt)
		}
	case ParamBoolean:
		if v.Kind != KindBool {
			return Value{}, fmt.Errorf("cannot use %s value as %s", v.Kind, pt)
		}
		return v, nil
	case ParamString:
		if v.Kind != KindString {
			return Value{}, fmt.Errorf("cannot use %s value as %s", v.Kind, pt)
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("unrecognized parameter type: %s", pt)
	}
}

// String renders the scalar for display and for the CAD application's
// string-valuation calls
func (v Value) String() string {
	switch v.Kind {
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// MarshalJSON encodes the value as a bare scalar
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindReal:
		return json.Marshal(v.Real)
	case KindInt:
		return json.Marshal(v.Int)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindString:
		return json.Marshal(v.Str)
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %q", v.Kind)
	}
}

// UnmarshalJSON decodes a bare scalar. Numbers without a fractional part
// decode as integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("value must be a scalar, got null")
	}

	parsed, err := ValueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

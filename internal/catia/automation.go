// Package catia drives a running CATIA application through its COM
// automation surface. A small Object interface wraps the dynamic
// dispatch layer so parameter and bridge logic can run against fakes on
// any platform, while the real backend is compiled in on windows only.
package catia

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates the application handle was released or never dialed
	ErrNotConnected = errors.New("not connected to application")
	// ErrMemberNotFound indicates the object does not expose the requested member
	ErrMemberNotFound = errors.New("automation member not found")
	// ErrUnsupportedPlatform indicates the automation backend is not compiled in
	ErrUnsupportedPlatform = errors.New("automation backend requires windows")
)

// MemberError reports a failed property or method access on an
// automation object, keeping the member name for diagnostics.
type MemberError struct {
	Member string
	Err    error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("automation member %s: %v", e.Member, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

// Object is a handle to one node of the application's automation tree.
// Implementations are not safe for concurrent use; the bridge serializes
// all automation traffic on a single goroutine.
type Object interface {
	// Get reads a property. Extra arguments select an element of an
	// indexed property.
	Get(property string, args ...any) (Result, error)

	// Put writes a property
	Put(property string, value any) error

	// Call invokes a method
	Call(method string, args ...any) (Result, error)

	// TypeName reports the automation class name, e.g. "PartDocument"
	TypeName() (string, error)

	// Same reports whether other refers to the same underlying object
	Same(other Object) bool

	// Release drops the handle. Further calls fail with ErrNotConnected.
	Release()
}

// Result is the dynamically typed value produced by a Get or Call. It
// holds a scalar, a nested Object, or nothing.
type Result struct {
	val any
}

// ResultOf wraps a backend value in a Result. The value must be nil, a
// bool, int, float64, string, or Object.
func ResultOf(val any) Result {
	return Result{val: val}
}

// IsNil reports whether the call produced no value
func (r Result) IsNil() bool {
	return r.val == nil
}

// Value returns the raw value
func (r Result) Value() any {
	return r.val
}

// Object returns the nested object, if the result holds one
func (r Result) Object() (Object, bool) {
	obj, ok := r.val.(Object)
	return obj, ok
}

// Float returns the result as a float64. Integer results widen.
func (r Result) Float() (float64, bool) {
	switch v := r.val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the result as an int. Float results convert only when
// they carry no fractional part.
func (r Result) Int() (int, bool) {
	switch v := r.val.(type) {
	case int:
		return v, true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Bool returns the result as a bool
func (r Result) Bool() (bool, bool) {
	b, ok := r.val.(bool)
	return b, ok
}

// Str returns the result as a string
func (r Result) Str() (string, bool) {
	s, ok := r.val.(string)
	return s, ok
}

// GetObject reads a property that must hold a nested object
func GetObject(o Object, property string, args ...any) (Object, error) {
	res, err := o.Get(property, args...)
	if err != nil {
		return nil, err
	}
	obj, ok := res.Object()
	if !ok {
		return nil, fmt.Errorf("property %s: expected object, got %T", property, res.Value())
	}
	return obj, nil
}

// GetString reads a property that must hold a string
func GetString(o Object, property string, args ...any) (string, error) {
	res, err := o.Get(property, args...)
	if err != nil {
		return "", err
	}
	s, ok := res.Str()
	if !ok {
		return "", fmt.Errorf("property %s: expected string, got %T", property, res.Value())
	}
	return s, nil
}

// GetFloat reads a property that must hold a number
func GetFloat(o Object, property string, args ...any) (float64, error) {
	res, err := o.Get(property, args...)
	if err != nil {
		return 0, err
	}
	f, ok := res.Float()
	if !ok {
		return 0, fmt.Errorf("property %s: expected number, got %T", property, res.Value())
	}
	return f, nil
}

// GetInt reads a property that must hold an integer
func GetInt(o Object, property string, args ...any) (int, error) {
	res, err := o.Get(property, args...)
	if err != nil {
		return 0, err
	}
	n, ok := res.Int()
	if !ok {
		return 0, fmt.Errorf("property %s: expected integer, got %T", property, res.Value())
	}
	return n, nil
}

// GetBool reads a property that must hold a bool
func GetBool(o Object, property string, args ...any) (bool, error) {
	res, err := o.Get(property, args...)
	if err != nil {
		return false, err
	}
	b, ok := res.Bool()
	if !ok {
		return false, fmt.Errorf("property %s: expected bool, got %T", property, res.Value())
	}
	return b, nil
}

// CallObject invokes a method that must return a nested object
func CallObject(o Object, method string, args ...any) (Object, error) {
	res, err := o.Call(method, args...)
	if err != nil {
		return nil, err
	}
	obj, ok := res.Object()
	if !ok {
		return nil, fmt.Errorf("method %s: expected object, got %T", method, res.Value())
	}
	return obj, nil
}

// CallString invokes a method that must return a string
func CallString(o Object, method string, args ...any) (string, error) {
	res, err := o.Call(method, args...)
	if err != nil {
		return "", err
	}
	s, ok := res.Str()
	if !ok {
		return "", fmt.Errorf("method %s: expected string, got %T", method, res.Value())
	}
	return s, nil
}

// HasMember reports whether the object exposes the given property.
// Dimension parameters are recognized this way: they are the only
// parameter family carrying a Unit property.
func HasMember(o Object, property string) (bool, error) {
	res, err := o.Get(property)
	if err == nil {
		if obj, ok := res.Object(); ok {
			obj.Release()
		}
		return true, nil
	}
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	return false, err
}

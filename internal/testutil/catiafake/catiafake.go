// Package catiafake provides an in-memory automation tree for tests.
// It mimics the slice of the CATIA object model the bridge touches:
// documents behind the STI lookup table, parameter collections,
// parameter sets, relations, and analysis sensors. Fakes are not safe
// for concurrent use, matching the real automation surface.
package catiafake

import (
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// dispatcher is one node of the fake tree. Models implement it with a
// member-name switch; wrap adapts them to the automation interface.
type dispatcher interface {
	class() string
	get(property string, args []any) (any, error)
	put(property string, value any) error
	call(method string, args []any) (any, error)
}

// object adapts a dispatcher to catia.Object
type object struct {
	d        dispatcher
	released bool
}

func wrap(d dispatcher) catia.Object {
	return &object{d: d}
}

func (o *object) Get(property string, args ...any) (catia.Result, error) {
	if o.released {
		return catia.Result{}, catia.ErrNotConnected
	}
	v, err := o.d.get(property, args)
	if err != nil {
		return catia.Result{}, err
	}
	return resultOf(v), nil
}

func (o *object) Put(property string, value any) error {
	if o.released {
		return catia.ErrNotConnected
	}
	return o.d.put(property, value)
}

func (o *object) Call(method string, args ...any) (catia.Result, error) {
	if o.released {
		return catia.Result{}, catia.ErrNotConnected
	}
	v, err := o.d.call(method, args)
	if err != nil {
		return catia.Result{}, err
	}
	return resultOf(v), nil
}

func (o *object) TypeName() (string, error) {
	if o.released {
		return "", catia.ErrNotConnected
	}
	return o.d.class(), nil
}

// Same compares the underlying model nodes, so separately fetched
// handles to one node compare equal the way COM identity does
func (o *object) Same(other catia.Object) bool {
	oo, ok := other.(*object)
	return ok && oo.d == o.d
}

func (o *object) Release() {
	o.released = true
}

// resultOf wraps dispatcher return values, lifting nested model nodes
// into automation handles
func resultOf(v any) catia.Result {
	if v == nil {
		return catia.Result{}
	}
	if d, ok := v.(dispatcher); ok {
		return catia.ResultOf(wrap(d))
	}
	return catia.ResultOf(v)
}

// modelOf unwraps an automation handle passed back in as an argument
func modelOf(arg any) any {
	if o, ok := arg.(*object); ok {
		return o.d
	}
	return arg
}

func notFound(member string) error {
	return &catia.MemberError{Member: member, Err: catia.ErrMemberNotFound}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	}
	return 0, false
}

func methodFailed(method string) error {
	return fmt.Errorf("The method %s failed", method)
}

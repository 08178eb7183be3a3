package bridge

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/param"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/units"
)

// Compute runs one evaluation cycle: write every input, update the
// model, read every output back. Inputs left out of the request are
// written with their mapping defaults, so an evaluation depends only on
// the request and the model spec, never on what a previous cycle left
// in the document.
func (c *Component) Compute(ctx context.Context, inputs map[string]models.Value) (map[string]models.Value, error) {
	if c.root == nil {
		return nil, ErrNotSetUp
	}

	declared := make(map[string]bool, len(c.inputs))
	for i := range c.inputs {
		declared[c.inputs[i].Name] = true
	}
	for name := range inputs {
		if !declared[name] {
			return nil, &UnknownVariableError{Name: name}
		}
	}

	for i := range c.inputs {
		m := &c.inputs[i]
		val, ok := inputs[m.Name]
		if !ok {
			val = m.Value
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		coerced, err := val.Coerce(m.Type)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", m.Name, err)
		}
		if err := param.SetValue(m.Param, coerced, m.Units); err != nil {
			return nil, fmt.Errorf("write input %s: %w", m.Name, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := c.doc.Call("Activate"); err != nil {
		return nil, fmt.Errorf("activate document: %w", err)
	}
	if _, err := c.root.Call("Update"); err != nil {
		return nil, fmt.Errorf("update model: %w", err)
	}

	out := make(map[string]models.Value, len(c.outputs))
	for i := range c.outputs {
		m := &c.outputs[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, val, cadUnit, err := param.TypeValueUnit(m.Param)
		if err != nil {
			return nil, fmt.Errorf("read output %s: %w", m.Name, err)
		}
		// The document may have swapped the display unit since setup
		if want := units.ToCAD(m.Units); cadUnit != want {
			return nil, &UnitMismatchError{Variable: m.Name, Want: want, Got: cadUnit}
		}
		out[m.Name] = val
	}
	return out, nil
}

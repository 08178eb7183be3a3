package bridge

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/param"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/units"
)

// reflectVariables mirrors the declared parameters into bridge-owned
// parameter sets and ties each mirror to its original with a formula.
// Reflected inputs drive the original through the formula, so writes go
// to the mirror; reflected outputs are driven by the original, so reads
// come from the mirror.
func (c *Component) reflectVariables(ctx context.Context) error {
	names := make([]string, 0, len(c.opts.ReflectInputs)+len(c.opts.ReflectOutputs))
	for _, cadName := range c.opts.ReflectInputs {
		names = append(names, cadName)
	}
	for _, cadName := range c.opts.ReflectOutputs {
		names = append(names, cadName)
	}
	originals, err := param.Resolve(c.root, names)
	if err != nil {
		return err
	}
	defer func() {
		for _, p := range originals {
			p.Release()
		}
	}()

	paramsColl, err := catia.GetObject(c.root, "Parameters")
	if err != nil {
		return err
	}
	defer paramsColl.Release()
	rootSet, err := catia.GetObject(paramsColl, "RootParameterSet")
	if err != nil {
		return err
	}
	defer rootSet.Release()
	sets, err := catia.GetObject(rootSet, "ParameterSets")
	if err != nil {
		return err
	}
	defer sets.Release()
	relations, err := catia.GetObject(c.root, "Relations")
	if err != nil {
		return err
	}
	defer relations.Release()

	if len(c.opts.ReflectInputs) > 0 {
		if err := c.reflectInputs(ctx, originals, paramsColl, sets, relations); err != nil {
			return err
		}
	}
	if len(c.opts.ReflectOutputs) > 0 {
		if err := c.reflectOutputs(ctx, originals, sets, relations); err != nil {
			return err
		}
	}
	return nil
}

func (c *Component) reflectInputs(ctx context.Context, originals map[string]catia.Object, paramsColl, sets, relations catia.Object) error {
	set, err := ensureSet(sets, InputSetName)
	if err != nil {
		return err
	}
	defer set.Release()
	setParams, err := catia.GetObject(set, "AllParameters")
	if err != nil {
		return err
	}
	defer setParams.Release()

	for _, name := range sortedNames(c.opts.ReflectInputs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		cadName := c.opts.ReflectInputs[name]
		original := originals[cadName]

		// A formula may already drive the original; the mirror takes over
		if err := removeDrivingRelation(original); err != nil {
			return fmt.Errorf("reflect input %s: %w", name, err)
		}
		// A mirror from an earlier run may linger
		_, _ = setParams.Call("Remove", name)

		created, symbol, err := param.Reflect(original, setParams, name)
		if err != nil {
			return fmt.Errorf("reflect input %s: %w", name, err)
		}
		body, err := catia.CallString(paramsColl, "GetNameToUseInRelation", created)
		if err != nil {
			created.Release()
			return fmt.Errorf("reflect input %s: %w", name, err)
		}
		if err := createFormula(relations, "Input."+name, original, body); err != nil {
			created.Release()
			return fmt.Errorf("reflect input %s: %w", name, err)
		}
		m, err := reflectedMapping(cadName, name, created, symbol)
		if err != nil {
			created.Release()
			return err
		}
		c.inputs = append(c.inputs, m)
	}
	return nil
}

func (c *Component) reflectOutputs(ctx context.Context, originals map[string]catia.Object, sets, relations catia.Object) error {
	set, err := ensureSet(sets, OutputSetName)
	if err != nil {
		return err
	}
	defer set.Release()
	setParams, err := catia.GetObject(set, "AllParameters")
	if err != nil {
		return err
	}
	defer setParams.Release()

	for _, name := range sortedNames(c.opts.ReflectOutputs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		cadName := c.opts.ReflectOutputs[name]
		original := originals[cadName]

		// Dropping a stale mirror also drops its formula
		_, _ = setParams.Call("Remove", name)

		created, symbol, err := param.Reflect(original, setParams, name)
		if err != nil {
			return fmt.Errorf("reflect output %s: %w", name, err)
		}
		if err := createFormula(relations, "Output."+name, created, cadName); err != nil {
			created.Release()
			return fmt.Errorf("reflect output %s: %w", name, err)
		}
		m, err := reflectedMapping(cadName, name, created, symbol)
		if err != nil {
			created.Release()
			return err
		}
		c.outputs = append(c.outputs, m)
	}
	return nil
}

// ensureSet returns the named parameter set, creating it when Item
// fails for any reason
func ensureSet(sets catia.Object, name string) (catia.Object, error) {
	set, err := catia.ItemByName(sets, name)
	if err == nil {
		return set, nil
	}
	set, err = catia.CallObject(sets, "CreateSet", name)
	if err != nil {
		return nil, fmt.Errorf("create parameter set %s: %w", name, err)
	}
	return set, nil
}

// removeDrivingRelation deletes the formula constraining a parameter,
// if there is one
func removeDrivingRelation(p catia.Object) error {
	res, err := p.Get("OptionalRelation")
	if err != nil {
		return err
	}
	rel, ok := res.Object()
	if !ok {
		return nil
	}
	defer rel.Release()
	relName, err := catia.GetString(rel, "Name")
	if err != nil {
		return err
	}
	parent, err := catia.GetObject(rel, "Parent")
	if err != nil {
		return err
	}
	defer parent.Release()
	if _, err := parent.Call("Remove", relName); err != nil {
		return fmt.Errorf("remove relation %s: %w", relName, err)
	}
	return nil
}

func createFormula(relations catia.Object, name string, output catia.Object, body string) error {
	res, err := relations.Call("CreateFormula", name, "", output, body)
	if err != nil {
		return err
	}
	if f, ok := res.Object(); ok {
		f.Release()
	}
	return nil
}

func reflectedMapping(cadName, name string, created catia.Object, symbol string) (Mapping, error) {
	pt, val, _, err := param.TypeValueUnit(created)
	if err != nil {
		return Mapping{}, fmt.Errorf("reflected parameter %s: %w", name, err)
	}
	return Mapping{
		CADName: cadName,
		Param:   created,
		Name:    name,
		Value:   val,
		Units:   units.ToFramework(symbol),
		Type:    pt,
	}, nil
}

package bridge

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/internal/param"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/units"
)

// Setup binds the component to a live session: loads the document,
// resolves every declared parameter into a mapping, and mirrors the
// reflected variables into bridge-owned parameter sets. On failure the
// component releases whatever it acquired and can be set up again.
func (c *Component) Setup(ctx context.Context, sess *catia.Session) error {
	if sess == nil || sess.App() == nil {
		return catia.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := catia.LoadDocument(sess.App(), c.opts.Path, c.opts.ReadOnly)
	if err != nil {
		return fmt.Errorf("load document %s: %w", c.opts.Path, err)
	}
	root, rootType, err := catia.RootObject(doc)
	if err != nil {
		doc.Release()
		return err
	}
	c.sess = sess
	c.doc = doc
	c.root = root
	c.rootType = rootType

	inputs, err := c.buildMappings(ctx, c.opts.Inputs)
	if err != nil {
		c.Close()
		return err
	}
	c.inputs = inputs

	outputs, err := c.buildMappings(ctx, c.opts.Outputs)
	if err != nil {
		c.Close()
		return err
	}
	c.outputs = outputs

	if len(c.opts.ReflectInputs)+len(c.opts.ReflectOutputs) > 0 {
		if err := c.reflectVariables(ctx); err != nil {
			c.Close()
			return err
		}
	}

	logger.Info("component ready",
		"path", c.opts.Path,
		"root", string(rootType),
		"inputs", len(c.inputs),
		"outputs", len(c.outputs))
	return nil
}

// buildMappings resolves the declared parameters in sorted name order
func (c *Component) buildMappings(ctx context.Context, vars map[string]config.VarSpec) ([]Mapping, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	coll, err := catia.GetObject(c.root, "Parameters")
	if err != nil {
		return nil, err
	}
	defer coll.Release()

	mappings := make([]Mapping, 0, len(vars))
	for _, cadName := range sortedNames(vars) {
		if err := ctx.Err(); err != nil {
			releaseMappings(mappings)
			return nil, err
		}
		p, err := catia.ItemByName(coll, cadName)
		if err != nil {
			releaseMappings(mappings)
			return nil, &ParameterNotFoundError{Name: cadName}
		}
		m, err := newMapping(cadName, p, vars[cadName])
		if err != nil {
			p.Release()
			releaseMappings(mappings)
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

func newMapping(cadName string, p catia.Object, spec config.VarSpec) (Mapping, error) {
	pt, cadVal, cadUnit, err := param.TypeValueUnit(p)
	if err != nil {
		return Mapping{}, fmt.Errorf("parameter %s: %w", cadName, err)
	}

	val := cadVal
	if spec.Value != nil {
		val, err = spec.Value.Coerce(pt)
		if err != nil {
			return Mapping{}, fmt.Errorf("parameter %s: %w", cadName, err)
		}
	}

	// The document wins on units: a declared unit only fills in when
	// the parameter carries none
	unit := units.ToFramework(cadUnit)
	if unit == "" {
		unit = spec.Units
	}

	desc := spec.Desc
	if desc == "" {
		comment, err := catia.GetString(p, "Comment")
		if err != nil {
			return Mapping{}, fmt.Errorf("parameter %s: %w", cadName, err)
		}
		desc = comment
	}

	discrete, err := discreteness(cadName, pt, spec.Discrete)
	if err != nil {
		return Mapping{}, err
	}

	return Mapping{
		CADName:  cadName,
		Param:    p,
		Name:     spec.Name,
		Value:    val,
		Units:    unit,
		Desc:     desc,
		Tags:     spec.Tags,
		Discrete: discrete,
		Type:     pt,
	}, nil
}

// discreteness decides whether a variable is discrete. Left unset, the
// parameter type decides; string and boolean parameters cannot be
// forced continuous.
func discreteness(cadName string, pt models.ParamType, forced *bool) (bool, error) {
	if forced == nil {
		return pt.Discrete(), nil
	}
	if !*forced && (pt == models.ParamString || pt == models.ParamBoolean) {
		return false, &DiscretenessError{Name: cadName, Type: pt}
	}
	return *forced, nil
}

func releaseMappings(mappings []Mapping) {
	for i := range mappings {
		if mappings[i].Param != nil {
			mappings[i].Param.Release()
		}
	}
}

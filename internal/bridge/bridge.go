// Package bridge exposes CAD model parameters as optimization
// variables. A Component drives one document as a function evaluation:
// write the mapped input parameters, update the model, read the mapped
// outputs back.
package bridge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

// Parameter sets reflected variables are grouped under
const (
	InputSetName  = "Optimization bridge input parameters"
	OutputSetName = "Optimization bridge output parameters"
)

// ErrNotSetUp indicates Compute was called before Setup succeeded
var ErrNotSetUp = errors.New("component is not set up")

// ParameterNotFoundError reports a mapped parameter name the document
// does not contain
type ParameterNotFoundError struct {
	Name string
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("parameter %s not found in document", e.Name)
}

// DiscretenessError reports a variable forced continuous on a
// parameter type that has no continuous form
type DiscretenessError struct {
	Name string
	Type models.ParamType
}

func (e *DiscretenessError) Error() string {
	return fmt.Sprintf("parameter %s must be discrete", e.Name)
}

// UnknownVariableError reports an input name no mapping declares
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown input variable: %s", e.Name)
}

// UnitMismatchError reports an output parameter whose display unit no
// longer matches the unit recorded at setup
type UnitMismatchError struct {
	Variable string
	Want     string
	Got      string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("output %s: unit %q does not match expected %q", e.Variable, e.Got, e.Want)
}

// Options declares the variables a Component exposes. Inputs and
// Outputs are keyed by CAD parameter name; ReflectInputs and
// ReflectOutputs are keyed by framework variable name and point at the
// relation names of the parameters to mirror.
type Options struct {
	Path           string
	ReadOnly       bool
	Inputs         map[string]config.VarSpec
	Outputs        map[string]config.VarSpec
	ReflectInputs  map[string]string
	ReflectOutputs map[string]string
}

// OptionsFromSpec builds Options from a loaded model spec
func OptionsFromSpec(spec config.ModelSpec) Options {
	opts := Options{
		Path:     spec.Path,
		ReadOnly: spec.ReadOnly,
		Inputs:   spec.Inputs,
		Outputs:  spec.Outputs,
	}
	if spec.Reflect != nil {
		opts.ReflectInputs = spec.Reflect.Inputs
		opts.ReflectOutputs = spec.Reflect.Outputs
	}
	return opts
}

// Mapping binds one framework variable to one CAD parameter. Param is
// the automation handle reads and writes go through; for reflected
// variables it is the mirrored parameter, not the original.
type Mapping struct {
	CADName  string
	Param    catia.Object
	Name     string
	Value    models.Value
	Units    string
	Desc     string
	Tags     []string
	Discrete bool
	Type     models.ParamType
}

// Component is the bridge between the optimization framework and one
// CAD document. Not safe for concurrent use: the daemon serializes all
// evaluations on one goroutine.
type Component struct {
	opts Options
	sess *catia.Session

	doc      catia.Object
	root     catia.Object
	rootType catia.RootType

	inputs  []Mapping
	outputs []Mapping
}

// New validates the options and returns an unconnected Component.
// Setup binds it to a live session.
func New(opts Options) (*Component, error) {
	if opts.Path == "" {
		return nil, errors.New("document path is required")
	}
	seen := make(map[string]string)
	check := func(vars map[string]config.VarSpec, role string) error {
		for cadName, spec := range vars {
			if cadName == "" {
				return fmt.Errorf("%s variable with empty parameter name", role)
			}
			if spec.Name == "" {
				return fmt.Errorf("%s variable %s: name is required", role, cadName)
			}
			if prev, ok := seen[spec.Name]; ok {
				return fmt.Errorf("variable name %s mapped to both %s and %s", spec.Name, prev, cadName)
			}
			seen[spec.Name] = cadName
		}
		return nil
	}
	if err := check(opts.Inputs, "input"); err != nil {
		return nil, err
	}
	if err := check(opts.Outputs, "output"); err != nil {
		return nil, err
	}
	checkReflect := func(vars map[string]string, role string) error {
		for name, cadName := range vars {
			if name == "" {
				return fmt.Errorf("reflected %s with empty variable name", role)
			}
			if cadName == "" {
				return fmt.Errorf("reflected %s %s: parameter name is required", role, name)
			}
			if prev, ok := seen[name]; ok {
				return fmt.Errorf("variable name %s mapped to both %s and %s", name, prev, cadName)
			}
			seen[name] = cadName
		}
		return nil
	}
	if err := checkReflect(opts.ReflectInputs, "input"); err != nil {
		return nil, err
	}
	if err := checkReflect(opts.ReflectOutputs, "output"); err != nil {
		return nil, err
	}
	if len(opts.Inputs)+len(opts.Outputs)+len(opts.ReflectInputs)+len(opts.ReflectOutputs) == 0 {
		return nil, errors.New("at least one variable mapping is required")
	}
	return &Component{opts: opts}, nil
}

// Path returns the document path the component drives
func (c *Component) Path() string {
	return c.opts.Path
}

// RootType reports the document kind, valid after Setup
func (c *Component) RootType() catia.RootType {
	return c.rootType
}

// Root returns the document root handle, valid after Setup
func (c *Component) Root() catia.Object {
	return c.root
}

// Session returns the session the component was set up with
func (c *Component) Session() *catia.Session {
	return c.sess
}

// Inputs describes the exposed input variables in evaluation order
func (c *Component) Inputs() []models.VarInfo {
	return varInfos(c.inputs)
}

// Outputs describes the exposed output variables in evaluation order
func (c *Component) Outputs() []models.VarInfo {
	return varInfos(c.outputs)
}

func varInfos(mappings []Mapping) []models.VarInfo {
	out := make([]models.VarInfo, len(mappings))
	for i, m := range mappings {
		out[i] = models.VarInfo{
			CADName:  m.CADName,
			Name:     m.Name,
			Type:     m.Type,
			Units:    m.Units,
			Discrete: m.Discrete,
			Default:  m.Value,
			Desc:     m.Desc,
			Tags:     m.Tags,
		}
	}
	return out
}

// Close releases every automation handle the component holds. The
// session is left alone; the daemon owns it.
func (c *Component) Close() {
	for i := range c.inputs {
		if c.inputs[i].Param != nil {
			c.inputs[i].Param.Release()
		}
	}
	for i := range c.outputs {
		if c.outputs[i].Param != nil {
			c.outputs[i].Param.Release()
		}
	}
	c.inputs = nil
	c.outputs = nil
	if c.root != nil {
		c.root.Release()
		c.root = nil
	}
	if c.doc != nil {
		c.doc.Release()
		c.doc = nil
	}
	c.sess = nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

// ModelSpec describes the CAD document and the variables exposed from it
type ModelSpec struct {
	Path     string             `yaml:"path" env:"CATIAD_MODEL_PATH"`
	ReadOnly bool               `yaml:"read_only"`
	Inputs   map[string]VarSpec `yaml:"inputs,omitempty"`
	Outputs  map[string]VarSpec `yaml:"outputs,omitempty"`
	Reflect  *ReflectSpec       `yaml:"reflect,omitempty"`
}

// ReflectSpec mirrors chosen parameters into bridge-owned parameter sets.
// Keys are variable names, values are the CAD parameter names to mirror.
type ReflectSpec struct {
	Inputs  map[string]string `yaml:"inputs,omitempty"`
	Outputs map[string]string `yaml:"outputs,omitempty"`
}

// VarSpec declares one variable exposed from a CAD parameter. In YAML a
// bare string is shorthand for {name: <string>}.
type VarSpec struct {
	Name     string
	Value    *models.Value
	Units    string
	Discrete *bool
	Desc     string
	Tags     []string
}

type rawVarSpec struct {
	Name     string   `yaml:"name"`
	Value    any      `yaml:"value,omitempty"`
	Units    string   `yaml:"units,omitempty"`
	Discrete *bool    `yaml:"discrete,omitempty"`
	Desc     string   `yaml:"desc,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// UnmarshalYAML accepts either a bare variable name or a full mapping
func (vs *VarSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*vs = VarSpec{Name: name}
		return nil
	}

	var raw rawVarSpec
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*vs = VarSpec{
		Name:     raw.Name,
		Units:    raw.Units,
		Discrete: raw.Discrete,
		Desc:     raw.Desc,
		Tags:     raw.Tags,
	}
	if raw.Value != nil {
		v, err := models.ValueFromAny(raw.Value)
		if err != nil {
			return fmt.Errorf("variable %s: %w", raw.Name, err)
		}
		vs.Value = &v
	}
	return nil
}

// InputNames returns the CAD parameter names of the inputs in sorted order
func (m *ModelSpec) InputNames() []string {
	return sortedKeys(m.Inputs)
}

// OutputNames returns the CAD parameter names of the outputs in sorted order
func (m *ModelSpec) OutputNames() []string {
	return sortedKeys(m.Outputs)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

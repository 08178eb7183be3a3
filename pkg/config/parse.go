package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseConfigYAML parses a Config from YAML bytes and validates it.
// Values absent from the document keep the built-in defaults.
func ParseConfigYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ParseConfigYAMLString parses a Config from a YAML string and validates it.
func ParseConfigYAMLString(yamlText string) (*Config, error) {
	return ParseConfigYAML([]byte(yamlText))
}

// ParseModelSpecYAML parses a ModelSpec from YAML bytes and validates it.
// This is used for APIs where the model spec is provided as payload (not
// via filesystem).
func ParseModelSpecYAML(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse model spec yaml: %w", err)
	}

	if err := validateModelSpec(&spec); err != nil {
		return nil, fmt.Errorf("invalid model spec: %w", err)
	}

	return &spec, nil
}

// ParseModelSpecYAMLString parses a ModelSpec from a YAML string and validates it.
func ParseModelSpecYAMLString(yamlText string) (*ModelSpec, error) {
	return ParseModelSpecYAML([]byte(yamlText))
}

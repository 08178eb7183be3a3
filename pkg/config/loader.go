package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads the daemon configuration: built-in defaults, then the file
// when a path is given, then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("invalid log_format: %s (must be json or text)", cfg.LogFormat)
	}

	if cfg.HTTPAddr == "" {
		return fmt.Errorf("http_addr cannot be empty")
	}
	if cfg.GRPCAddr == "" {
		return fmt.Errorf("grpc_addr cannot be empty")
	}

	if err := validateSession(&cfg.Session); err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}

	if cfg.Callback != nil {
		if err := validateCallback(cfg.Callback); err != nil {
			return fmt.Errorf("callback validation failed: %w", err)
		}
	}

	if cfg.Model == nil {
		return fmt.Errorf("model must be defined")
	}
	if err := validateModelSpec(cfg.Model); err != nil {
		return fmt.Errorf("model validation failed: %w", err)
	}

	return nil
}

// validateSession validates the session configuration
func validateSession(s *SessionConfig) error {
	if s.ProgID == "" {
		return fmt.Errorf("prog_id cannot be empty")
	}

	connectTimeout, err := s.GetConnectTimeout()
	if err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	}
	if connectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}

	keepalive, err := s.GetKeepaliveInterval()
	if err != nil {
		return fmt.Errorf("invalid keepalive_interval: %w", err)
	}
	if keepalive <= 0 {
		return fmt.Errorf("keepalive_interval must be positive")
	}

	return nil
}

// validateCallback validates the callback configuration
func validateCallback(c *CallbackConfig) error {
	if c.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	timeout, err := c.GetTimeout()
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// validateModelSpec validates the model specification
func validateModelSpec(m *ModelSpec) error {
	if m.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if len(m.Inputs) == 0 && len(m.Outputs) == 0 {
		return fmt.Errorf("at least one input or output must be defined")
	}

	varNames := make(map[string]bool)
	for _, cadName := range m.InputNames() {
		if err := validateVarSpec(cadName, m.Inputs[cadName], varNames); err != nil {
			return fmt.Errorf("inputs: %w", err)
		}
	}
	for _, cadName := range m.OutputNames() {
		if err := validateVarSpec(cadName, m.Outputs[cadName], varNames); err != nil {
			return fmt.Errorf("outputs: %w", err)
		}
	}

	if m.Reflect != nil {
		if err := validateReflect(m.Reflect, varNames); err != nil {
			return fmt.Errorf("reflect: %w", err)
		}
	}

	return nil
}

// validateVarSpec validates one variable declaration
func validateVarSpec(cadName string, spec VarSpec, seen map[string]bool) error {
	if cadName == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if spec.Name == "" {
		return fmt.Errorf("parameter %s: variable name cannot be empty", cadName)
	}
	if seen[spec.Name] {
		return fmt.Errorf("duplicate variable name: %s", spec.Name)
	}
	seen[spec.Name] = true
	return nil
}

// validateReflect validates the reflection specification
func validateReflect(r *ReflectSpec, seen map[string]bool) error {
	for _, entries := range []map[string]string{r.Inputs, r.Outputs} {
		for varName, cadName := range entries {
			if varName == "" {
				return fmt.Errorf("variable name cannot be empty")
			}
			if cadName == "" {
				return fmt.Errorf("variable %s: parameter name cannot be empty", varName)
			}
			if seen[varName] {
				return fmt.Errorf("duplicate variable name: %s", varName)
			}
			seen[varName] = true
		}
	}
	return nil
}

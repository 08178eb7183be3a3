package config

import "time"

// Config represents the bridge daemon configuration
type Config struct {
	LogLevel  string          `yaml:"log_level" env:"CATIAD_LOG_LEVEL"`
	LogFormat string          `yaml:"log_format" env:"CATIAD_LOG_FORMAT"`
	HTTPAddr  string          `yaml:"http_addr" env:"CATIAD_HTTP_ADDR"`
	GRPCAddr  string          `yaml:"grpc_addr" env:"CATIAD_GRPC_ADDR"`
	StorePath string          `yaml:"store_path,omitempty" env:"CATIAD_STORE_PATH"`
	Session   SessionConfig   `yaml:"session"`
	Callback  *CallbackConfig `yaml:"callback,omitempty"`
	Model     *ModelSpec      `yaml:"model"`
}

// SessionConfig controls how the daemon binds to the CAD application
type SessionConfig struct {
	ProgID            string `yaml:"prog_id" env:"CATIAD_SESSION_PROG_ID"`
	AttachOnly        bool   `yaml:"attach_only"`
	Visible           bool   `yaml:"visible"`
	ConnectTimeout    string `yaml:"connect_timeout"`    // e.g., "60s"
	KeepaliveInterval string `yaml:"keepalive_interval"` // e.g., "30s"
}

// GetConnectTimeout parses the connect timeout string to time.Duration
func (s *SessionConfig) GetConnectTimeout() (time.Duration, error) {
	return time.ParseDuration(s.ConnectTimeout)
}

// GetKeepaliveInterval parses the keepalive interval string to time.Duration
func (s *SessionConfig) GetKeepaliveInterval() (time.Duration, error) {
	return time.ParseDuration(s.KeepaliveInterval)
}

// CallbackConfig configures webhook notifications for finished evaluations
type CallbackConfig struct {
	URL        string `yaml:"url" env:"CATIAD_CALLBACK_URL"`
	Secret     string `yaml:"secret,omitempty" env:"CATIAD_CALLBACK_SECRET"`
	Timeout    string `yaml:"timeout,omitempty"` // e.g., "10s"
	MaxRetries int    `yaml:"max_retries"`
}

// GetTimeout parses the timeout string to time.Duration. An empty string
// means the default of 10 seconds.
func (c *CallbackConfig) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(c.Timeout)
}

// Default returns the built-in daemon defaults
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		HTTPAddr:  ":8080",
		GRPCAddr:  ":50051",
		Session: SessionConfig{
			ProgID:            "CATIA.Application",
			ConnectTimeout:    "60s",
			KeepaliveInterval: "30s",
		},
	}
}

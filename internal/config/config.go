package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level configuration structure.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Reclaim ReclaimConfig `yaml:"reclaim"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig holds connection settings for the container engine.
type EngineConfig struct {
	// Host is the daemon address (e.g. unix:///var/run/docker.sock).
	// Empty means environment configuration / the default socket.
	Host string `yaml:"host"`
	// Timeout bounds a single refresh or deletion batch, in seconds.
	Timeout int `yaml:"timeout"`
}

// ReclaimConfig holds deletion policy settings.
type ReclaimConfig struct {
	// Cascade, when true, pulls dependent resources into deletion plans
	// by default instead of skipping in-use selections.
	Cascade bool `yaml:"cascade"`
	// Force passes the engine's force flag on deletions.
	Force bool `yaml:"force"`
	// Protect lists label keys; resources carrying any of them are never
	// planned for deletion.
	Protect []string `yaml:"protect"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	// File receives log output; empty logs to stderr (discarded while the
	// dashboard owns the terminal).
	File string `yaml:"file"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout: 60,
		},
		Reclaim: ReclaimConfig{
			Protect: []string{"docksweep.protect"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the config file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Reclaim.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Validate checks the EngineConfig for correctness.
func (e *EngineConfig) Validate() error {
	if e.Timeout <= 0 {
		return fmt.Errorf("engine timeout must be greater than 0, got %d", e.Timeout)
	}
	return nil
}

// Validate checks the ReclaimConfig for correctness.
func (r *ReclaimConfig) Validate() error {
	for _, key := range r.Protect {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("protect entries must be non-empty label keys")
		}
	}
	return nil
}

// Validate checks the LogConfig for correctness.
func (l *LogConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(l.Level)] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", l.Level)
	}
	return nil
}

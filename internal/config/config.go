// Package config holds the assistant engine configuration: a YAML file with
// sane defaults and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all lifehub configuration.
type Config struct {
	// Engine settings
	Engine EngineConfig `yaml:"engine"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the conversational action engine.
type EngineConfig struct {
	// TurnLatency is the simulated "assistant is thinking" delay.
	TurnLatency time.Duration `yaml:"turn_latency"`

	// StorePath is the SQLite audit store location. Empty disables the
	// audit trail.
	StorePath string `yaml:"store_path"`

	// KeywordRulesPath is an optional YAML overlay for the per-module
	// keyword tables, hot-reloaded on change.
	KeywordRulesPath string `yaml:"keyword_rules_path"`

	// SeedFixtures seeds demo advisory items and directory entries on init.
	SeedFixtures bool `yaml:"seed_fixtures"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			TurnLatency:  800 * time.Millisecond,
			StorePath:    "lifehub.db",
			SeedFixtures: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides. A missing file is not an error: defaults plus environment win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file/default values with LIFEHUB_* variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("LIFEHUB_TURN_LATENCY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Engine.TurnLatency = d
		}
	}
	if v := os.Getenv("LIFEHUB_STORE_PATH"); v != "" {
		c.Engine.StorePath = v
	}
	if v := os.Getenv("LIFEHUB_KEYWORD_RULES"); v != "" {
		c.Engine.KeywordRulesPath = v
	}
	if v := os.Getenv("LIFEHUB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) validate() error {
	if c.Engine.TurnLatency < 0 {
		return fmt.Errorf("engine.turn_latency must be >= 0, got %v", c.Engine.TurnLatency)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug/info/warn/error", c.Logging.Level)
	}
	return nil
}

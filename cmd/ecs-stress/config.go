package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Duration time.Duration `toml:"duration" yaml:"duration"`
	Tick     time.Duration `toml:"tick" yaml:"tick"` // 0 runs ticks back to back
	Entities int           `toml:"entities" yaml:"entities"`
	Systems  int           `toml:"systems" yaml:"systems"`
	Churn    float64       `toml:"churn" yaml:"churn"` // fraction of entities mutated per tick
	Seed     int64         `toml:"seed" yaml:"seed"`
	Profile  string        `toml:"profile" yaml:"profile"` // "", "cpu" or "mem"
	Logging  LoggingConfig `toml:"logging" yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Load reads a TOML or YAML config file, chosen by extension, over the
// defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	case c.Entities < 0:
		return fmt.Errorf("entities must not be negative, got %d", c.Entities)
	case c.Systems < 1:
		return fmt.Errorf("systems must be at least 1, got %d", c.Systems)
	case c.Churn < 0 || c.Churn > 1:
		return fmt.Errorf("churn must be within [0, 1], got %g", c.Churn)
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile mode %q", c.Profile)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Duration: 10 * time.Second,
		Entities: 10000,
		Systems:  50,
		Churn:    0.01,
		Seed:     1,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Package config loads pipeline settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ib-77/ropline/pkg/rop/pipe"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config describes one pipeline.
type Config struct {
	Name     string        `yaml:"name"`
	Capacity int           `yaml:"capacity"`
	Stages   []StageConfig `yaml:"stages"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// StageConfig overrides the outbound link of one stage.
type StageConfig struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns a configuration with every link at pipe.DefaultCapacity.
func Default() *Config {
	return &Config{
		Name:     "pipeline",
		Capacity: pipe.DefaultCapacity,
		Metrics:  MetricsConfig{Namespace: "ropline"},
	}
}

// Load reads and validates a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}

	seen := make(map[string]bool, len(c.Stages))
	for i, s := range c.Stages {
		if s.Name == "" {
			return fmt.Errorf("%w: stages[%d] has no name", ErrInvalidConfig, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: stage %q listed twice", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true
		if s.Capacity < 0 {
			return fmt.Errorf("%w: stage %q capacity must not be negative, got %d", ErrInvalidConfig, s.Name, s.Capacity)
		}
	}
	return nil
}

// CapacityFor returns the capacity of the link leaving the named stage.
func (c *Config) CapacityFor(stage string) int {
	for _, s := range c.Stages {
		if s.Name == stage && s.Capacity > 0 {
			return s.Capacity
		}
	}
	return c.Capacity
}

// Options converts the configuration into pipeline options. reg is used
// only when metrics are enabled.
func (c *Config) Options(logger *slog.Logger, reg prometheus.Registerer) []pipe.Option {
	opts := []pipe.Option{
		pipe.WithName(c.Name),
		pipe.WithCapacity(c.Capacity),
		pipe.WithLogger(logger),
	}
	for _, s := range c.Stages {
		if s.Capacity > 0 {
			opts = append(opts, pipe.WithStageCapacity(s.Name, s.Capacity))
		}
	}
	if c.Metrics.Enabled && reg != nil {
		opts = append(opts, pipe.WithMetrics(reg, c.Metrics.Namespace))
	}
	return opts
}

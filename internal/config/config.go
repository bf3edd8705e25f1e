// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/rezolus-go/internal/validation"
)

// Config holds the agent's full runtime configuration, loaded in three
// layers (struct defaults, YAML file, environment variables) by
// LoadWithKoanf.
//
// Configuration Categories:
//
//  1. Samplers: per-sampler enable/interval/capacity settings
//  2. Server: HTTP bind address for the exposition and query surface
//  3. Recording: where the agent persists its columnar recording
//  4. Logging: level and output format
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	agent.Run(cfg)
type Config struct {
	Samplers  map[string]SamplerConfig `koanf:"samplers"`
	Server    ServerConfig             `koanf:"server"`
	Recording RecordingConfig          `koanf:"recording"`
	Logging   LoggingConfig            `koanf:"logging"`
}

// SamplerConfig is one entry of the sampler table: whether the
// named sampler is constructed at startup, how often it refreshes, and
// capacity bounds for the index-keyed groups it may register.
type SamplerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval" validate:"min=1000000"`
	MaxCgroups   int           `koanf:"max_cgroups" validate:"omitempty,min=2"`
	MaxNUMANodes int           `koanf:"max_numa_nodes" validate:"omitempty,min=1"`
}

// ServerConfig is the agent's HTTP bind address for /metrics and the query
// surface.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=0,max=65535"`
}

// Addr formats the server's listen address as host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// RecordingConfig controls where the agent's columnar recording (spec
// an optional recording) is persisted.
type RecordingConfig struct {
	Path    string `koanf:"path"`
	Enabled bool   `koanf:"enabled"`
}

// LoggingConfig controls the zerolog global logger (internal/logging).
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks every configured field against its `validate` struct
// tags, returning a descriptive error on the first struct that fails.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	for name, sc := range c.Samplers {
		sc := sc
		if err := validation.ValidateStruct(&sc); err != nil {
			return fmt.Errorf("samplers.%s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and an optional
// config file, in that precedence order over struct defaults. See
// LoadWithKoanf for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

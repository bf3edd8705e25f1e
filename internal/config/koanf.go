// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in priority order. The first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rezolus-go/config.yaml",
	"/etc/rezolus-go/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultSamplerNames lists the built-in samplers that get a default entry
// even if the config file and environment don't mention them, matching
// internal/sampler's registry.
var defaultSamplerNames = []string{"cpu", "memory", "host", "cgroup"}

// defaultConfig returns the struct-default configuration layer, applied
// before the config file and environment variables.
func defaultConfig() *Config {
	samplers := make(map[string]SamplerConfig, len(defaultSamplerNames))
	for _, name := range defaultSamplerNames {
		samplers[name] = SamplerConfig{
			Enabled:      true,
			Interval:     time.Second,
			MaxCgroups:   256,
			MaxNUMANodes: 1024,
		}
	}

	return &Config{
		Samplers: samplers,
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9172,
		},
		Recording: RecordingConfig{
			Path:    "/data/rezolus.duckdb",
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with three layered sources, later
// sources overriding earlier ones:
//  1. Defaults: the struct returned by defaultConfig
//  2. Config file: an optional YAML file (see DefaultConfigPaths)
//  3. Environment variables: REZOLUS_-prefixed, dot-delimited
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("REZOLUS_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches CONFIG_PATH then DefaultConfigPaths, returning
// the first file that exists, or "" if none do.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps REZOLUS_-prefixed environment variable names onto
// koanf dot paths, e.g. REZOLUS_SERVER_PORT -> server.port,
// REZOLUS_LOGGING_LEVEL -> logging.level. Per-sampler fields are not
// addressable this way (map keys can't be embedded in an env var name
// unambiguously) — those are only configurable via the YAML file.
func envTransformFunc(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "REZOLUS_")), "_", ".")
}

// GetKoanfInstance returns a fresh Koanf instance for advanced callers
// (hot-reload, tests) that want to build their own layered load.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile watches path for changes and invokes callback on each
// one. The caller is responsible for synchronizing config access during a
// reload.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

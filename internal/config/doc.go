// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

/*
Package config loads the agent's runtime configuration through three
layered sources, each overriding the last:

 1. Struct defaults (one enabled entry per built-in sampler, a sane
    listen address, JSON logging at info level)
 2. An optional YAML config file, found via CONFIG_PATH or one of
    DefaultConfigPaths
 3. Environment variables, prefixed REZOLUS_ and dot-delimited
    (REZOLUS_SERVER_PORT, REZOLUS_LOGGING_LEVEL, ...)

# Sampler Table

The `samplers` section of a config file is a map keyed by sampler name:

	samplers:
	  cpu:
	    enabled: true
	    interval: 1s
	  cgroup:
	    enabled: true
	    interval: 5s
	    max_cgroups: 512

Per-sampler fields are only settable through the file, not environment
variables — map keys can't be folded into an env var name unambiguously.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Server.Addr())

# Validation

Every loaded Config is validated via go-playground/validator/v10 struct
tags (internal/validation) before Load returns: listen port range,
sampler interval minimum, logging level/format enums.
*/
package config

// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package samplerdrv adapts the suture-based supervisor tree pattern
// (internal/supervisor/tree.go) into a flat driver of sampler.Sampler
// instances: one suture.Service per sampler, each ticking its own Refresh
// on a configurable interval and reporting outcomes into a shared
// sampler.StatusTracker, with a per-sampler gobreaker circuit breaker
// standing in for a failure-threshold/backoff supervisor Spec
// (the samplers have no children to isolate, so one flat tree replaces a
// deeper hierarchy).
package samplerdrv

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/rezolus-go/internal/sampler"
)

// Config mirrors the supervisor tree's TreeConfig fields that still apply to a flat
// tree: failure accounting and shutdown timeout. FailureBackoff and
// FailureDecay are suture.Spec passthroughs; the per-sampler circuit
// breaker below is an additional, independent layer of protection suture
// itself doesn't provide (it isolates a chronically failing sampler's
// Refresh calls without restarting its goroutine).
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultConfig mirrors supervisor.DefaultTreeConfig.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Driver runs a dynamic set of samplers under one suture supervisor.
type Driver struct {
	root    *suture.Supervisor
	status  *sampler.StatusTracker
	logger  *slog.Logger
	config  Config
}

// NewDriver creates a driver. logger feeds both suture's event hook (via
// sutureslog, same as the supervisor tree) and each tickerService's own failure
// logging.
func NewDriver(logger *slog.Logger, config Config) *Driver {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}
	spec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	return &Driver{
		root:   suture.New("rezolus-agent", spec),
		status: sampler.NewStatusTracker(),
		logger: logger,
		config: config,
	}
}

// Status returns the current sampler.StatusTracker, shared across every
// sampler added to this driver.
func (d *Driver) Status() *sampler.StatusTracker { return d.status }

// AddSampler wraps s in a tickerService refreshing every interval and adds
// it to the supervisor, returning a token usable with RemoveSampler.
func (d *Driver) AddSampler(s sampler.Sampler, interval time.Duration) suture.ServiceToken {
	svc := &tickerService{
		sampler:  s,
		interval: interval,
		status:   d.status,
		logger:   d.logger.With("sampler", s.Name()),
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        s.Name(),
			MaxRequests: 1,
			Interval:    0,
			Timeout:     d.config.FailureBackoff,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
	return d.root.Add(svc)
}

// RemoveSampler stops and removes a previously added sampler.
func (d *Driver) RemoveSampler(token suture.ServiceToken) error {
	return d.root.Remove(token)
}

// Serve runs every added sampler until ctx is canceled.
func (d *Driver) Serve(ctx context.Context) error {
	return d.root.Serve(ctx)
}

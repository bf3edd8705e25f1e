// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package sampler defines the contract every telemetry source implements,
// following the service-interface convention in
// internal/supervisor (every managed unit exposes a narrow Serve
// surface that the driver supervises uniformly, regardless of what the
// unit actually does).
package sampler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

// ErrUnsupported is returned by a constructor when the host does not expose
// the data source a sampler needs (e.g. a cgroup v1 host asked to run the
// cgroup v2 sampler). It is distinct from a disabled sampler: unsupported
// samplers are never retried, disabled ones are simply never started.
var ErrUnsupported = errors.New("sampler: unsupported on this host")

// Sampler is one telemetry source. Refresh is called on a fixed interval by
// the driver; it must be safe to call from a single goroutine at a time
// (the driver never calls Refresh concurrently with itself for the same
// sampler) and must populate its metrics into the Registry it was
// constructed with.
type Sampler interface {
	// Name identifies the sampler in logs, self-metrics, and config.
	Name() string
	// Refresh takes one measurement and records it into the registry.
	Refresh(ctx context.Context) error
}

// Constructor builds a Sampler bound to reg, or returns (nil, ErrUnsupported)
// if the host cannot support it, or any other error for a genuine
// construction failure.
type Constructor func(reg *metric.Registry) (Sampler, error)

// registry is the process-wide table of known sampler constructors, indexed
// by name. New reference samplers register themselves from an init() in
// their own file, the same pattern this codebase's service packages use to
// avoid a central switch statement growing unbounded.
var registry = map[string]Constructor{}

// Register adds a constructor under name. Calling Register twice for the
// same name is a programming error and panics (metric.Registry, by
// contrast, reports a conflicting registration as ErrDuplicateName).
func Register(name string, ctor Constructor) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("sampler: %q already registered", name))
	}
	registry[name] = ctor
}

// Names returns every registered sampler name.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// Build constructs the named sampler against reg.
func Build(name string, reg *metric.Registry) (Sampler, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("sampler: no constructor registered for %q", name)
	}
	return ctor(reg)
}

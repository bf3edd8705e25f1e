// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package selfmetrics instruments the agent's own operation — sampler
// health, registry growth, recording I/O, and query/analytics latency — on
// a separate prometheus.Registry from the domain metric.Registry the
// agent is sampling into, built with the same promauto-based
// instrumentation style used elsewhere in this codebase, but around
// this project's own operational surface instead of database/API/cache
// metrics.
package selfmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SamplerRefreshDuration records how long each sampler's Refresh call
	// takes, labeled by sampler name.
	SamplerRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rezolus_sampler_refresh_duration_seconds",
			Help:    "Duration of a sampler's Refresh call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sampler"},
	)

	// SamplerRefreshErrors counts failed Refresh calls, labeled by sampler
	// name.
	SamplerRefreshErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezolus_sampler_refresh_errors_total",
			Help: "Total number of sampler Refresh errors",
		},
		[]string{"sampler"},
	)

	// SamplerDegraded is 1 while a sampler is in the degraded state
	// (consecutive failures at or above the status tracker's threshold),
	// else 0.
	SamplerDegraded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rezolus_sampler_degraded",
			Help: "1 if the sampler is currently degraded, else 0",
		},
		[]string{"sampler"},
	)

	// RegistryEntries tracks how many metrics are registered, under a "kind"
	// label; cmd/agent sets only the overall count, as kind="total".
	RegistryEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rezolus_registry_entries",
			Help: "Number of registered metric entries by kind",
		},
		[]string{"kind"},
	)

	// RecordingLoadDuration records how long loading a recording into a
	// tsdb.DB took.
	RecordingLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rezolus_recording_load_duration_seconds",
			Help:    "Duration of loading a recording into the in-memory TSDB",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RecordingWriteErrors counts failed recording writes, labeled by
	// backend (e.g. "duckdb").
	RecordingWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezolus_recording_write_errors_total",
			Help: "Total number of recording write errors",
		},
		[]string{"backend"},
	)

	// QueryEvalDuration records how long a PromQL-subset query took to
	// evaluate, labeled by result type (scalar/vector/matrix).
	QueryEvalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rezolus_query_eval_duration_seconds",
			Help:    "Duration of evaluating a query",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result_type"},
	)

	// QueryEvalErrors counts failed query evaluations, labeled by error
	// kind (unknown_metric/bad_selector/type_mismatch/empty_result).
	QueryEvalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rezolus_query_eval_errors_total",
			Help: "Total number of query evaluation errors",
		},
		[]string{"error_kind"},
	)

	// AnalyticsPassDuration records how long one analytics pass
	// (correlation, periodicity, or anomaly detection) took, labeled by
	// pass kind.
	AnalyticsPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rezolus_analytics_pass_duration_seconds",
			Help:    "Duration of one analytics pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pass"},
	)

	// HTTPRequestDuration records exposition/query HTTP handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rezolus_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the agent",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// ObserveDuration is a small helper for the common
// `defer selfmetrics.ObserveDuration(hist, time.Now())` pattern.
func ObserveDuration(hist prometheus.Observer, start time.Time) {
	hist.Observe(time.Since(start).Seconds())
}

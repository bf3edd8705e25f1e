// Package recording defines the interface-level contract for the on-disk
// columnar recording and the TSDB loader built on it. The concrete
// backing store (DuckDB, see duckdb.go) is one implementation of this
// interface — the on-disk format itself remains an external
// collaborator the core only talks to through this contract.
package recording

import "github.com/tomtom215/rezolus-go/internal/metric"

// Header carries the recording's top-level metadata.
type Header struct {
	Source     string
	Version    string
	IntervalNS int64
}

// Column is one metric's recorded columns: its kind, its labels, and either
// (timestamps, u64 values) for a counter, (timestamps, f64 values) for a
// gauge, or (timestamps, bucket-count snapshots) for a histogram.
type Column struct {
	MetricName string
	Kind       metric.Kind
	Labels     map[string]string

	TimestampsNS []int64
	ValuesU64    []uint64  // populated when Kind == KindCounter
	ValuesF64    []float64 // populated when Kind == KindGauge

	HistogramA      uint       // populated when Kind == KindHistogram
	HistogramN      uint
	HistogramCounts [][]uint64 // one bucket-count slice per timestamp
}

// Loader reads a recording's header and per-metric columns. Implementations
// need not be safe for concurrent use; the TSDB loader drains a Loader once
// at startup.
type Loader interface {
	Header() (Header, error)
	Columns() ([]Column, error)
}

// Writer appends columns to a recording. The write path (agent → columnar
// writer) is explicitly out of scope for the analytics core; Writer
// exists only so the DuckDB-backed implementation is round-trippable for
// tests and for an agent that chooses to persist what it samples.
type Writer interface {
	WriteHeader(Header) error
	AppendColumn(Column) error
	Close() error
}

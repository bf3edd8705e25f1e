// Package tsdb implements the in-memory time-series store loaded from a
// columnar recording: metric name → label-tuple → (timestamp, value)
// series, indexed by label for selector-based lookup and aggregation.
package tsdb

import (
	"sort"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
)

// LabelFilter restricts which label-tuples appear in a Collection lookup.
// Equality only — regex matching is resolved by the query engine before it
// calls into the TSDB.
type LabelFilter map[string]string

// labeledCounterSeries pairs one label-tuple with its counter samples.
type labeledCounterSeries struct {
	Labels metric.Labels
	Series rate.CounterSeries
}

// labeledFloatSeries pairs one label-tuple with a float series (gauge
// values, or a derived rate series).
type labeledFloatSeries struct {
	Labels metric.Labels
	Series rate.FloatSeries
}

// counterMetric holds every series recorded under one counter metric name.
type counterMetric struct {
	name       string
	seriesByID map[string]*labeledCounterSeries
	order      []string
}

// gaugeMetric holds every series recorded under one gauge metric name.
type gaugeMetric struct {
	name       string
	seriesByID map[string]*labeledFloatSeries
	order      []string
}

// histogramMetric holds the bucket layout and per-label-tuple snapshots of
// one histogram metric, keyed by label tuple; each snapshot carries its own
// timestamp.
type histogramMetric struct {
	name       string
	a, n       uint
	seriesByID map[string]*labeledHistogramSeries
	order      []string
}

type labeledHistogramSeries struct {
	Labels metric.Labels
	Points []HistogramPoint
}

// HistogramPoint is one recorded histogram snapshot: bucket counts at a
// point in time.
type HistogramPoint struct {
	TimestampNS int64
	Counts      []uint64
}

// DB is the loaded, immutable-after-load time-series store. Queries hold a
// shared reference and may read concurrently — nothing here mutates after
// Load returns.
type DB struct {
	source, version string
	intervalNS      int64

	counters   map[string]*counterMetric
	gauges     map[string]*gaugeMetric
	histograms map[string]*histogramMetric
}

// New creates an empty store; used by the Loader to populate one metric at
// a time, and directly by tests and the live-registry adapter.
func New(source, version string, intervalNS int64) *DB {
	return &DB{
		source:     source,
		version:    version,
		intervalNS: intervalNS,
		counters:   make(map[string]*counterMetric),
		gauges:     make(map[string]*gaugeMetric),
		histograms: make(map[string]*histogramMetric),
	}
}

// Source returns the recording's source identifier.
func (db *DB) Source() string { return db.source }

// Version returns the recording's format version.
func (db *DB) Version() string { return db.version }

// IntervalNS returns the recording's nominal sampling interval in
// nanoseconds.
func (db *DB) IntervalNS() int64 { return db.intervalNS }

// AddCounterSeries inserts (or appends to) the counter series for name under
// the given labels.
func (db *DB) AddCounterSeries(name string, labels metric.Labels, series rate.CounterSeries) {
	m, ok := db.counters[name]
	if !ok {
		m = &counterMetric{name: name, seriesByID: make(map[string]*labeledCounterSeries)}
		db.counters[name] = m
	}
	key := labels.Key()
	if existing, ok := m.seriesByID[key]; ok {
		existing.Series = append(existing.Series, series...)
		return
	}
	m.seriesByID[key] = &labeledCounterSeries{Labels: labels, Series: series}
	m.order = append(m.order, key)
}

// AddGaugeSeries inserts (or appends to) the gauge series for name under the
// given labels.
func (db *DB) AddGaugeSeries(name string, labels metric.Labels, series rate.FloatSeries) {
	m, ok := db.gauges[name]
	if !ok {
		m = &gaugeMetric{name: name, seriesByID: make(map[string]*labeledFloatSeries)}
		db.gauges[name] = m
	}
	key := labels.Key()
	if existing, ok := m.seriesByID[key]; ok {
		existing.Series = append(existing.Series, series...)
		return
	}
	m.seriesByID[key] = &labeledFloatSeries{Labels: labels, Series: series}
	m.order = append(m.order, key)
}

// AddHistogramSeries inserts (or appends to) the histogram snapshots for
// name under the given labels.
func (db *DB) AddHistogramSeries(name string, labels metric.Labels, a, n uint, points []HistogramPoint) {
	m, ok := db.histograms[name]
	if !ok {
		m = &histogramMetric{name: name, a: a, n: n, seriesByID: make(map[string]*labeledHistogramSeries)}
		db.histograms[name] = m
	}
	key := labels.Key()
	if existing, ok := m.seriesByID[key]; ok {
		existing.Points = append(existing.Points, points...)
		return
	}
	m.seriesByID[key] = &labeledHistogramSeries{Labels: labels, Points: points}
	m.order = append(m.order, key)
}

// CounterNames returns every registered counter metric name, sorted.
func (db *DB) CounterNames() []string { return sortedKeys(db.counters) }

// GaugeNames returns every registered gauge metric name, sorted.
func (db *DB) GaugeNames() []string { return sortedKeys(db.gauges) }

// HistogramNames returns every registered histogram metric name, sorted.
func (db *DB) HistogramNames() []string { return sortedKeys(db.histograms) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GetLabelValues returns every "key=value" string observed across all
// series of a metric, for discovery.
func (db *DB) GetLabelValues(name string) []string {
	seen := make(map[string]bool)
	visit := func(labels metric.Labels) {
		for _, p := range labels.Pairs() {
			seen[p.Key+"="+p.Value] = true
		}
	}
	if m, ok := db.counters[name]; ok {
		for _, key := range m.order {
			visit(m.seriesByID[key].Labels)
		}
	}
	if m, ok := db.gauges[name]; ok {
		for _, key := range m.order {
			visit(m.seriesByID[key].Labels)
		}
	}
	if m, ok := db.histograms[name]; ok {
		for _, key := range m.order {
			visit(m.seriesByID[key].Labels)
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

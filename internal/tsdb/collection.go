package tsdb

import (
	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
)

// CounterCollection is every series of one counter metric that passed a
// label filter. Series within a Collection share the metric name but differ
// in at least one label value.
type CounterCollection struct {
	name   string
	series []*labeledCounterSeries
}

// Name returns the metric name.
func (c *CounterCollection) Name() string { return c.name }

// Labels returns the distinct label sets present in the collection.
func (c *CounterCollection) Labels() []metric.Labels {
	out := make([]metric.Labels, len(c.series))
	for i, s := range c.series {
		out[i] = s.Labels
	}
	return out
}

// LabeledSeries pairs a label-tuple with its counter series, returned by
// Iter.
type LabeledSeries struct {
	Labels metric.Labels
	Series rate.CounterSeries
}

// Iter returns every (label-tuple, CounterSeries) pair in the collection.
func (c *CounterCollection) Iter() []LabeledSeries {
	out := make([]LabeledSeries, len(c.series))
	for i, s := range c.series {
		out[i] = LabeledSeries{Labels: s.Labels, Series: s.Series}
	}
	return out
}

// LabeledFloatSeries pairs a label-tuple with a derived float series.
type LabeledFloatSeries struct {
	Labels metric.Labels
	Series rate.FloatSeries
}

// RateCollection is the elementwise rate() of every series in a
// CounterCollection.
type RateCollection struct {
	name   string
	series []LabeledFloatSeries
}

// Name returns the metric name the rates were derived from.
func (r *RateCollection) Name() string { return r.name }

// Iter returns every (label-tuple, rate series) pair.
func (r *RateCollection) Iter() []LabeledFloatSeries { return r.series }

// Rate computes the elementwise rate of every series in the collection.
func (c *CounterCollection) Rate() *RateCollection {
	out := make([]LabeledFloatSeries, len(c.series))
	for i, s := range c.series {
		out[i] = LabeledFloatSeries{Labels: s.Labels, Series: rate.Rate(s.Series)}
	}
	return &RateCollection{name: c.name, series: out}
}

// AverageRate returns, for every label-tuple, a single scalar rate (total
// delta / total span).
func (c *CounterCollection) AverageRate() map[string]float64 {
	out := make(map[string]float64, len(c.series))
	for _, s := range c.series {
		out[s.Labels.Key()] = rate.AverageRate(s.Series)
	}
	return out
}

// Counters returns the collection of counter series for name matching
// filter, or (nil, false) if name is not a known counter metric.
func (db *DB) Counters(name string, filter LabelFilter) (*CounterCollection, bool) {
	m, ok := db.counters[name]
	if !ok {
		return nil, false
	}
	var out []*labeledCounterSeries
	for _, key := range m.order {
		s := m.seriesByID[key]
		if s.Labels.Matches(filter) {
			out = append(out, s)
		}
	}
	return &CounterCollection{name: name, series: out}, true
}

// GaugeCollection is every series of one gauge metric that passed a label
// filter.
type GaugeCollection struct {
	name   string
	series []*labeledFloatSeries
}

// Name returns the metric name.
func (g *GaugeCollection) Name() string { return g.name }

// Labels returns the distinct label sets present in the collection.
func (g *GaugeCollection) Labels() []metric.Labels {
	out := make([]metric.Labels, len(g.series))
	for i, s := range g.series {
		out[i] = s.Labels
	}
	return out
}

// Iter returns every (label-tuple, gauge series) pair.
func (g *GaugeCollection) Iter() []LabeledFloatSeries {
	out := make([]LabeledFloatSeries, len(g.series))
	for i, s := range g.series {
		out[i] = LabeledFloatSeries{Labels: s.Labels, Series: s.Series}
	}
	return out
}

// Untyped is an alias for Iter: gauges are already floating-point, so
// "converting to untyped" is the identity.
func (g *GaugeCollection) Untyped() []LabeledFloatSeries { return g.Iter() }

// Gauges returns the collection of gauge series for name matching filter,
// or (nil, false) if name is not a known gauge metric.
func (db *DB) Gauges(name string, filter LabelFilter) (*GaugeCollection, bool) {
	m, ok := db.gauges[name]
	if !ok {
		return nil, false
	}
	var out []*labeledFloatSeries
	for _, key := range m.order {
		s := m.seriesByID[key]
		if s.Labels.Matches(filter) {
			out = append(out, s)
		}
	}
	return &GaugeCollection{name: name, series: out}, true
}

// HistogramCollection is every series of one histogram metric that passed a
// label filter.
type HistogramCollection struct {
	name   string
	a, n   uint
	series []*labeledHistogramSeries
}

// Name returns the metric name.
func (h *HistogramCollection) Name() string { return h.name }

// Params returns the histogram's (grouping power, max-value power).
func (h *HistogramCollection) Params() (a, n uint) { return h.a, h.n }

// LabeledHistogramSeries pairs a label-tuple with its recorded snapshots.
type LabeledHistogramSeries struct {
	Labels metric.Labels
	Points []HistogramPoint
}

// Iter returns every (label-tuple, snapshots) pair.
func (h *HistogramCollection) Iter() []LabeledHistogramSeries {
	out := make([]LabeledHistogramSeries, len(h.series))
	for i, s := range h.series {
		out[i] = LabeledHistogramSeries{Labels: s.Labels, Points: s.Points}
	}
	return out
}

// Histograms returns the collection of histogram series for name matching
// filter, or (nil, false) if name is not a known histogram metric.
func (db *DB) Histograms(name string, filter LabelFilter) (*HistogramCollection, bool) {
	m, ok := db.histograms[name]
	if !ok {
		return nil, false
	}
	var out []*labeledHistogramSeries
	for _, key := range m.order {
		s := m.seriesByID[key]
		if s.Labels.Matches(filter) {
			out = append(out, s)
		}
	}
	return &HistogramCollection{name: name, a: m.a, n: m.n, series: out}, true
}

// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package recorder periodically snapshots a metric.Registry into a
// recording.Writer, the agent-side counterpart of internal/tsdb.Load: where
// tsdb drains a whole recording at once for querying, recorder appends to
// one a single point at a time as the agent samples, grounded on
// samplerdrv's tickerService (one suture.Service ticking a fixed interval,
// reporting outcomes through the same self-metrics/status conventions).
package recorder

import (
	"context"
	"time"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/recording"
	"github.com/tomtom215/rezolus-go/internal/selfmetrics"
)

// Recorder writes one recording.Column per registry entry (and, for group
// metrics, per populated index) on every tick.
type Recorder struct {
	reg      *metric.Registry
	writer   recording.Writer
	interval time.Duration
}

// New creates a Recorder. header is written once, immediately, via
// writer.WriteHeader.
func New(reg *metric.Registry, writer recording.Writer, interval time.Duration, header recording.Header) (*Recorder, error) {
	if err := writer.WriteHeader(header); err != nil {
		return nil, err
	}
	return &Recorder{reg: reg, writer: writer, interval: interval}, nil
}

// Serve implements suture.Service: it appends one column set per tick until
// ctx is canceled.
func (r *Recorder) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Recorder) tick() {
	now := time.Now().UnixNano()
	for _, e := range r.reg.Iterate() {
		if err := r.writeEntry(now, e); err != nil {
			selfmetrics.RecordingWriteErrors.WithLabelValues("duckdb").Inc()
		}
	}
}

func (r *Recorder) writeEntry(now int64, e metric.Entry) error {
	switch e.Kind {
	case metric.KindCounter:
		return r.writer.AppendColumn(recording.Column{
			MetricName:   e.Name,
			Kind:         metric.KindCounter,
			Labels:       e.Metadata,
			TimestampsNS: []int64{now},
			ValuesU64:    []uint64{e.Counter.Value()},
		})
	case metric.KindGauge:
		return r.writer.AppendColumn(recording.Column{
			MetricName:   e.Name,
			Kind:         metric.KindGauge,
			Labels:       e.Metadata,
			TimestampsNS: []int64{now},
			ValuesF64:    []float64{float64(e.Gauge.Value())},
		})
	case metric.KindHistogram:
		a, n := e.Histogram.Params()
		return r.writer.AppendColumn(recording.Column{
			MetricName:      e.Name,
			Kind:            metric.KindHistogram,
			Labels:          e.Metadata,
			TimestampsNS:    []int64{now},
			HistogramA:      a,
			HistogramN:      n,
			HistogramCounts: [][]uint64{e.Histogram.Snapshot().Counts()},
		})
	case metric.KindCounterGroup:
		return r.writeCounterGroup(now, e)
	case metric.KindGaugeGroup:
		return r.writeGaugeGroup(now, e)
	default:
		return nil
	}
}

func (r *Recorder) writeCounterGroup(now int64, e metric.Entry) error {
	var firstErr error
	for _, idx := range e.CounterGroup.PopulatedIndices() {
		meta, _ := e.CounterGroup.Metadata(idx)
		labels := mergeLabels(e.Metadata, meta)
		err := r.writer.AppendColumn(recording.Column{
			MetricName:   e.Name,
			Kind:         metric.KindCounter,
			Labels:       labels,
			TimestampsNS: []int64{now},
			ValuesU64:    []uint64{e.CounterGroup.Value(idx)},
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Recorder) writeGaugeGroup(now int64, e metric.Entry) error {
	var firstErr error
	for _, idx := range e.GaugeGroup.PopulatedIndices() {
		meta, _ := e.GaugeGroup.Metadata(idx)
		labels := mergeLabels(e.Metadata, meta)
		err := r.writer.AppendColumn(recording.Column{
			MetricName:   e.Name,
			Kind:         metric.KindGauge,
			Labels:       labels,
			TimestampsNS: []int64{now},
			ValuesF64:    []float64{float64(e.GaugeGroup.Value(idx))},
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func mergeLabels(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// String names the service for suture's logs.
func (r *Recorder) String() string { return "recorder" }

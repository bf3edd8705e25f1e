package tsdb

import (
	"fmt"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/recording"
)

// Load drains a recording.Loader into a new, immutable-after-load DB,
// partitioning columns into counters, gauges, and histograms by kind; a
// column of any other kind is an error.
func Load(loader recording.Loader) (*DB, error) {
	header, err := loader.Header()
	if err != nil {
		return nil, fmt.Errorf("tsdb: load header: %w", err)
	}
	columns, err := loader.Columns()
	if err != nil {
		return nil, fmt.Errorf("tsdb: load columns: %w", err)
	}

	db := New(header.Source, header.Version, header.IntervalNS)
	for _, c := range columns {
		labels := metric.NewLabels(c.Labels)
		switch c.Kind {
		case metric.KindCounter:
			series := make(rate.CounterSeries, len(c.TimestampsNS))
			for i := range c.TimestampsNS {
				series[i] = rate.CounterSample{TimestampNS: c.TimestampsNS[i], Value: c.ValuesU64[i]}
			}
			db.AddCounterSeries(c.MetricName, labels, series)
		case metric.KindGauge:
			series := make(rate.FloatSeries, len(c.TimestampsNS))
			for i := range c.TimestampsNS {
				series[i] = rate.Point{TimestampNS: c.TimestampsNS[i], Value: c.ValuesF64[i]}
			}
			db.AddGaugeSeries(c.MetricName, labels, series)
		case metric.KindHistogram:
			points := make([]HistogramPoint, len(c.TimestampsNS))
			for i := range c.TimestampsNS {
				points[i] = HistogramPoint{TimestampNS: c.TimestampsNS[i], Counts: c.HistogramCounts[i]}
			}
			db.AddHistogramSeries(c.MetricName, labels, c.HistogramA, c.HistogramN, points)
		default:
			return nil, fmt.Errorf("tsdb: column %s has unsupported kind %v", c.MetricName, c.Kind)
		}
	}
	return db, nil
}

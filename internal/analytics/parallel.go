package analytics

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

// NamedCorrelationResult pairs a candidate metric name with its
// correlation against the scan's target series.
type NamedCorrelationResult struct {
	MetricName string
	Result     CorrelationResult
}

// DiscoverCorrelations scans candidateNames for metrics that correlate with
// target, evaluating candidates concurrently over a bounded work-stealing
// pool (the errgroup.SetLimit pattern the rest of the pack's parallel
// fan-out code uses) rather than one goroutine per candidate. A candidate
// with fewer than 3 aligned samples or no series at all is skipped, not
// treated as a scan failure.
func DiscoverCorrelations(ctx context.Context, db *tsdb.DB, target rate.FloatSeries, candidateNames []string, concurrency int) ([]NamedCorrelationResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	results := make([]NamedCorrelationResult, len(candidateNames))
	for i, name := range candidateNames {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			components := gatherComponents(db, name)
			if len(components) == 0 {
				return nil
			}
			res, err := CorrelateComponents(target, components)
			if err != nil {
				return nil
			}
			results[i] = NamedCorrelationResult{MetricName: name, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]NamedCorrelationResult, 0, len(results))
	for _, r := range results {
		if r.MetricName != "" {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].Result.Best.Correlation) > math.Abs(out[j].Result.Best.Correlation)
	})
	return out, nil
}

// gatherComponents returns name's series as label-partitioned float
// series, deriving a rate series for counters and using gauge values
// as-is.
func gatherComponents(db *tsdb.DB, name string) []tsdb.LabeledFloatSeries {
	if cc, ok := db.Counters(name, nil); ok {
		return cc.Rate().Iter()
	}
	if gc, ok := db.Gauges(name, nil); ok {
		return gc.Iter()
	}
	return nil
}

// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package analytics implements the offline analysis engine: correlation
// discovery, periodicity detection, anomaly detection, and metric search
// over a loaded tsdb.DB.
package analytics

import (
	"errors"
	"math"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

// minOverlap is the fewest aligned timestamps two series must share before
// a correlation coefficient between them is considered meaningful — a
// strict intersection, per the spec's ≥ 3 overlapping points requirement.
const minOverlap = 3

// ErrInsufficientOverlap is returned when two series share fewer than
// minOverlap aligned timestamps, too few to compute a correlation
// coefficient.
var ErrInsufficientOverlap = errors.New("analytics: fewer than 3 aligned samples")

// Pearson computes the Pearson product-moment correlation coefficient
// between two equal-length series already aligned at the same timestamps.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, errors.New("analytics: series length mismatch")
	}
	if len(xs) < minOverlap {
		return 0, ErrInsufficientOverlap
	}
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, nil
	}
	return cov / math.Sqrt(varX*varY), nil
}

// alignTwo intersects two series on timestamp, returning parallel value
// slices in timestamp order. It mirrors rate.Align's strict-alignment rule
// for the two-series case analytics needs directly.
func alignTwo(a, b rate.FloatSeries) ([]float64, []float64) {
	bm := make(map[int64]float64, len(b))
	for _, p := range b {
		bm[p.TimestampNS] = p.Value
	}
	var xs, ys []float64
	for _, p := range a {
		if v, ok := bm[p.TimestampNS]; ok {
			xs = append(xs, p.Value)
			ys = append(ys, v)
		}
	}
	return xs, ys
}

// ComponentCorrelation names one labeled component and its correlation
// against a target series.
type ComponentCorrelation struct {
	Labels      metric.Labels
	Correlation float64
}

// CorrelationResult is the outcome of correlating a target series against a
// set of label-partitioned components (e.g. one series per cgroup).
type CorrelationResult struct {
	// Best is the single component whose correlation has the largest
	// magnitude.
	Best ComponentCorrelation
	// Aggregated is the correlation between the target and the elementwise
	// sum of all components.
	Aggregated float64
	// SystemWide is true when |Aggregated| > 0.95*|Best.Correlation|: the
	// effect tracks the whole population moving together rather than any
	// single component driving it.
	SystemWide bool
}

// CorrelateComponents finds which of components best explains target,
// and applies the aggregated-fallback heuristic to distinguish a
// component-driven effect from a system-wide one.
func CorrelateComponents(target rate.FloatSeries, components []tsdb.LabeledFloatSeries) (CorrelationResult, error) {
	var best ComponentCorrelation
	bestAbs := -1.0
	var componentSeries []rate.FloatSeries

	for _, comp := range components {
		componentSeries = append(componentSeries, comp.Series)
		xs, ys := alignTwo(target, comp.Series)
		if len(xs) < minOverlap {
			continue
		}
		r, err := Pearson(xs, ys)
		if err != nil {
			continue
		}
		if math.Abs(r) > bestAbs {
			bestAbs = math.Abs(r)
			best = ComponentCorrelation{Labels: comp.Labels, Correlation: r}
		}
	}
	if bestAbs < 0 {
		return CorrelationResult{}, ErrInsufficientOverlap
	}

	var aggregated float64
	if aggSeries := rate.Sum(componentSeries); len(aggSeries) > 0 {
		axs, ays := alignTwo(target, aggSeries)
		if len(axs) >= minOverlap {
			aggregated, _ = Pearson(axs, ays)
		}
	}

	return CorrelationResult{
		Best:       best,
		Aggregated: aggregated,
		SystemWide: math.Abs(aggregated) > 0.95*bestAbs,
	}, nil
}

// Package rate implements the wrap-aware rate derivation and label-set
// aggregation algebra over the metric model: turning
// monotonic counter series into per-second rates, and combining series
// across a label set under strict timestamp alignment.
package rate

import "sort"

// wrapThreshold is the counter-reset inflection point: a wrap-aware delta at
// or above 2^63 is treated as a counter reset rather than a huge increase.
const wrapThreshold = uint64(1) << 63

// CounterSample is one (timestamp, value) observation of a monotonic u64
// counter. Timestamps are nanoseconds since the epoch.
type CounterSample struct {
	TimestampNS int64
	Value       uint64
}

// CounterSeries is a counter's samples in strictly increasing timestamp
// order.
type CounterSeries []CounterSample

// Point is one (timestamp, value) pair of a derived floating-point series
// (a rate series, a gauge series, or any other computed series).
type Point struct {
	TimestampNS int64
	Value       float64
}

// FloatSeries is a sequence of Points in strictly increasing timestamp
// order.
type FloatSeries []Point

// WrapSub computes new - old interpreted modulo 2^64.
func WrapSub(newV, old uint64) uint64 {
	return newV - old // unsigned subtraction wraps automatically in Go
}

// Rate derives the per-second rate series from a counter series: for each
// adjacent pair (t0,v0),(t1,v1), delta = v1.WrapSub(v0); if delta >= 2^63 the
// interval is a counter reset and is skipped (dropped from the output,
// never negative).
func Rate(c CounterSeries) FloatSeries {
	if len(c) < 2 {
		return nil
	}
	out := make(FloatSeries, 0, len(c)-1)
	for i := 1; i < len(c); i++ {
		prev, cur := c[i-1], c[i]
		delta := WrapSub(cur.Value, prev.Value)
		if delta >= wrapThreshold {
			continue // counter reset: drop the interval
		}
		dtSec := float64(cur.TimestampNS-prev.TimestampNS) / 1e9
		if dtSec <= 0 {
			continue
		}
		out = append(out, Point{TimestampNS: cur.TimestampNS, Value: float64(delta) / dtSec})
	}
	return out
}

// AverageRate computes a single scalar rate for the whole series: total
// wrap-aware delta (skipping reset intervals, same as Rate) divided by
// total elapsed time.
func AverageRate(c CounterSeries) float64 {
	if len(c) < 2 {
		return 0
	}
	var totalDelta uint64
	var totalSpanNS int64
	for i := 1; i < len(c); i++ {
		prev, cur := c[i-1], c[i]
		delta := WrapSub(cur.Value, prev.Value)
		if delta >= wrapThreshold {
			continue
		}
		totalDelta += delta
		totalSpanNS += cur.TimestampNS - prev.TimestampNS
	}
	if totalSpanNS <= 0 {
		return 0
	}
	return float64(totalDelta) / (float64(totalSpanNS) / 1e9)
}

// IRate returns the wrap-aware rate of the last two samples of c whose
// timestamps lie within [t-windowNS, t]. Returns (0, false) if fewer than
// two such samples exist — irate never imputes a
// value for a sparse window.
func IRate(c CounterSeries, t, windowNS int64) (float64, bool) {
	lowerBound := t - windowNS
	var inWindow []CounterSample
	for _, s := range c {
		if s.TimestampNS >= lowerBound && s.TimestampNS <= t {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) < 2 {
		return 0, false
	}
	prev := inWindow[len(inWindow)-2]
	cur := inWindow[len(inWindow)-1]
	delta := WrapSub(cur.Value, prev.Value)
	if delta >= wrapThreshold {
		return 0, false
	}
	dtSec := float64(cur.TimestampNS-prev.TimestampNS) / 1e9
	if dtSec <= 0 {
		return 0, false
	}
	return float64(delta) / dtSec, true
}

// RangeRate computes total-delta/elapsed across the samples of c within
// [t-windowNS, t], the window semantics `rate(series[w])` uses in the query
// engine (distinct from IRate's last-two-samples semantics).
func RangeRate(c CounterSeries, t, windowNS int64) (float64, bool) {
	lowerBound := t - windowNS
	var inWindow []CounterSample
	for _, s := range c {
		if s.TimestampNS >= lowerBound && s.TimestampNS <= t {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) < 2 {
		return 0, false
	}
	return AverageRate(inWindow), true
}

// Align intersects the timestamp sets of a group of series, keeping only
// timestamps present in every series — the strict-alignment rule behind
// every aggregation below.
func Align(series []FloatSeries) []int64 {
	if len(series) == 0 {
		return nil
	}
	counts := make(map[int64]int)
	for _, s := range series {
		seen := make(map[int64]bool, len(s))
		for _, p := range s {
			if !seen[p.TimestampNS] {
				seen[p.TimestampNS] = true
				counts[p.TimestampNS]++
			}
		}
	}
	out := make([]int64, 0, len(counts))
	for ts, n := range counts {
		if n == len(series) {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func valueAt(s FloatSeries, ts int64) (float64, bool) {
	// Series are short-lived query results; linear scan is adequate and
	// keeps this free of an extra index structure.
	for _, p := range s {
		if p.TimestampNS == ts {
			return p.Value, true
		}
	}
	return 0, false
}

// Sum elementwise-sums a group of series over their aligned timestamps
// (timestamps missing from any input are dropped from the output, per the
// strict-alignment rule).
func Sum(series []FloatSeries) FloatSeries {
	return combine(series, func(vals []float64) float64 {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum
	})
}

// Avg elementwise-averages a group of series.
func Avg(series []FloatSeries) FloatSeries {
	return combine(series, func(vals []float64) float64 {
		if len(vals) == 0 {
			return 0
		}
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals))
	})
}

// Min elementwise-minimums a group of series.
func Min(series []FloatSeries) FloatSeries {
	return combine(series, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// Max elementwise-maximums a group of series.
func Max(series []FloatSeries) FloatSeries {
	return combine(series, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// Count counts contributing series at each aligned timestamp.
func Count(series []FloatSeries) FloatSeries {
	return combine(series, func(vals []float64) float64 {
		return float64(len(vals))
	})
}

func combine(series []FloatSeries, reduce func([]float64) float64) FloatSeries {
	timestamps := Align(series)
	out := make(FloatSeries, 0, len(timestamps))
	for _, ts := range timestamps {
		vals := make([]float64, 0, len(series))
		for _, s := range series {
			if v, ok := valueAt(s, ts); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		out = append(out, Point{TimestampNS: ts, Value: reduce(vals)})
	}
	return out
}

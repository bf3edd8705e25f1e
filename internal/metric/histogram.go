package metric

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// Histogram is a logarithmic bucketed distribution parameterized by a
// grouping power `a` and a max-value power `n`. Values below 2^a are tracked
// in 2^a linear buckets of width 1; each subsequent magnitude doubling adds
// another 2^a buckets whose width also doubles, until values reach 2^n. A
// value at or above 2^n is clamped into the final bucket.
//
// This layout keeps relative error bounded by roughly 1/2^a regardless of
// magnitude, the same trade-off a log-linear histogram gives, without
// claiming bit-compatibility with any particular reference implementation.
type Histogram struct {
	a, n    uint
	buckets []atomic.Uint64
	// groupSize = 1<<a, precomputed for bucketIndex/bounds.
	groupSize uint64
}

// NewHistogram constructs a histogram with grouping power a and max-value
// power n. Panics if a == 0, n == 0, or a > n (an invalid configuration —
// this is a startup-time construction error, not a runtime one).
func NewHistogram(a, n uint) *Histogram {
	if a == 0 || n == 0 || a > n {
		panic(fmt.Sprintf("metric: invalid histogram parameters a=%d n=%d", a, n))
	}
	groupSize := uint64(1) << a
	numGroups := uint64(n - a) // groups 1..numGroups beyond the linear region
	total := groupSize * (numGroups + 1)
	return &Histogram{
		a:         a,
		n:         n,
		groupSize: groupSize,
		buckets:   make([]atomic.Uint64, total),
	}
}

// Increment records one observation of value.
func (h *Histogram) Increment(value uint64) {
	idx := h.bucketIndex(value)
	h.buckets[idx].Add(1)
}

// bucketIndex maps a raw value to its bucket, clamping overflow into the
// last bucket.
func (h *Histogram) bucketIndex(value uint64) int {
	last := len(h.buckets) - 1
	if value < h.groupSize {
		return int(value)
	}
	ratio := value >> h.a
	g := bits.Len64(ratio) // ratio in [2^(g-1), 2^g) => g = bit length
	if uint(g) > h.n-h.a {
		return last
	}
	width := uint64(1) << (g - 1)
	groupStart := h.groupSize * (uint64(1) << uint(g-1))
	base := int(h.groupSize) + (g-1)*int(h.groupSize)
	offset := int((value - groupStart) / width)
	idx := base + offset
	if idx > last {
		return last
	}
	return idx
}

// bucketBounds returns the half-open value range [lo, hi) covered by a
// bucket index.
func (h *Histogram) bucketBounds(idx int) (lo, hi uint64) {
	if uint64(idx) < h.groupSize {
		return uint64(idx), uint64(idx) + 1
	}
	rel := idx - int(h.groupSize)
	g := rel/int(h.groupSize) + 1
	offset := rel % int(h.groupSize)
	width := uint64(1) << uint(g-1)
	groupStart := h.groupSize * (uint64(1) << uint(g-1))
	lo = groupStart + uint64(offset)*width
	hi = lo + width
	return lo, hi
}

// Snapshot captures the current bucket counts for percentile extraction.
// It is not a point-in-time atomic snapshot across buckets (a
// cross-metric/cross-bucket atomic read is not guaranteed), but each bucket
// read is itself atomic.
type HistogramSnapshot struct {
	h      *Histogram
	counts []uint64
	total  uint64
}

// Snapshot reads all bucket counts.
func (h *Histogram) Snapshot() *HistogramSnapshot {
	counts := make([]uint64, len(h.buckets))
	var total uint64
	for i := range h.buckets {
		c := h.buckets[i].Load()
		counts[i] = c
		total += c
	}
	return &HistogramSnapshot{h: h, counts: counts, total: total}
}

// SnapshotFromCounts builds a HistogramSnapshot directly from recorded
// bucket counts (e.g. a recording's stored snapshot) without requiring a
// live Histogram instance, so analytics and the query engine can compute
// percentiles over recorded data.
func SnapshotFromCounts(a, n uint, counts []uint64) *HistogramSnapshot {
	h := &Histogram{a: a, n: n, groupSize: uint64(1) << a}
	var total uint64
	for _, c := range counts {
		total += c
	}
	return &HistogramSnapshot{h: h, counts: counts, total: total}
}

// Percentile returns the interpolated value at percentile p (0..100). An
// empty snapshot returns 0. Percentiles are monotonic in p by construction:
// the same cumulative walk is used for every p, only the target changes.
func (s *HistogramSnapshot) Percentile(p float64) float64 {
	if s.total == 0 {
		return 0
	}
	if p <= 0 {
		return 0
	}
	if p > 100 {
		p = 100
	}
	target := p / 100 * float64(s.total)
	var cum uint64
	for i, c := range s.counts {
		if c == 0 {
			continue
		}
		prev := cum
		cum += c
		if float64(cum) >= target {
			lo, hi := s.h.bucketBounds(i)
			frac := 0.0
			if c > 0 {
				frac = (target - float64(prev)) / float64(c)
			}
			return float64(lo) + frac*float64(hi-lo)
		}
	}
	_, hi := s.h.bucketBounds(len(s.counts) - 1)
	return float64(hi - 1)
}

// Total returns the number of observations in the snapshot.
func (s *HistogramSnapshot) Total() uint64 { return s.total }

// Counts returns the snapshot's raw per-bucket counts, the shape a
// recording column stores one of per sample interval.
func (s *HistogramSnapshot) Counts() []uint64 { return s.counts }

// Params returns the histogram's grouping and max-value powers, needed
// alongside Counts to reconstruct a HistogramSnapshot from a recording.
func (h *Histogram) Params() (a, n uint) { return h.a, h.n }

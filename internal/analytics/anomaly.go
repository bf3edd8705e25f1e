package analytics

import (
	"errors"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Method selects which statistical test Detect applies.
type Method int

const (
	MethodZScore Method = iota
	MethodIQR
	MethodMAD
)

// Anomaly marks one out-of-distribution sample.
type Anomaly struct {
	Index int
	Value float64
	Score float64
}

// Stats carries the overall distribution statistics computed alongside an
// anomaly scan, independent of which method flagged which samples.
type Stats struct {
	Mean   float64
	StdDev float64
	Median float64
	Q1     float64
	Q3     float64
	Min    float64
	Max    float64
}

// Result is the outcome of a Detect call: the series' overall statistics,
// plus every anomalous sample sorted by |score| descending.
type Result struct {
	Stats     Stats
	Anomalies []Anomaly
}

// DefaultZScoreThreshold, DefaultIQRMultiplier, and DefaultMADThreshold are
// the conventional cutoffs (3 standard deviations; 1.5x IQR, the classic
// Tukey fence; 3.5 on the modified z-score, the commonly cited Iglewicz &
// Hoaglin figure for MAD-based outlier detection) — starting points for
// callers that don't have a more specific threshold in mind, not values
// Detect itself assumes.
const (
	DefaultZScoreThreshold = 3.0
	DefaultIQRMultiplier   = 1.5
	DefaultMADThreshold    = 3.5
)

// Detect scans values for anomalies using method, flagging every sample
// whose score exceeds threshold. Raising threshold can only shrink (never
// grow) the returned anomaly set, for every method.
func Detect(values []float64, method Method, threshold float64) (Result, error) {
	if len(values) < 4 {
		return Result{}, errors.New("analytics: need at least 4 samples for anomaly detection")
	}

	st, err := computeStats(values)
	if err != nil {
		return Result{}, err
	}

	var anomalies []Anomaly
	switch method {
	case MethodZScore:
		anomalies = detectZScore(values, st, threshold)
	case MethodIQR:
		anomalies = detectIQR(values, st, threshold)
	case MethodMAD:
		anomalies, err = detectMAD(values, threshold)
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, errors.New("analytics: unknown anomaly detection method")
	}

	sort.Slice(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].Score) > math.Abs(anomalies[j].Score)
	})
	return Result{Stats: st, Anomalies: anomalies}, nil
}

func computeStats(values []float64) (Stats, error) {
	data := stats.Float64Data(values)
	mean, err := stats.Mean(data)
	if err != nil {
		return Stats{}, err
	}
	stddev, err := stats.StandardDeviation(data)
	if err != nil {
		return Stats{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return Stats{}, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return Stats{}, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return Stats{}, err
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1, q3 := quartiles(sorted)
	return Stats{Mean: mean, StdDev: stddev, Median: median, Q1: q1, Q3: q3, Min: min, Max: max}, nil
}

func detectZScore(values []float64, st Stats, threshold float64) []Anomaly {
	if st.StdDev == 0 {
		return nil
	}
	var out []Anomaly
	for i, v := range values {
		z := (v - st.Mean) / st.StdDev
		if math.Abs(z) > threshold {
			out = append(out, Anomaly{Index: i, Value: v, Score: z})
		}
	}
	return out
}

// quartiles computes Q1/Q3 by index-slicing the sorted data into halves and
// taking the median of each half (for odd n the overall median belongs to
// neither half), never interpolating
// between indices the way the R-7 quantile method does — the spec mandates
// the index-slicing form specifically so results are reproducible across
// implementations without depending on an interpolation convention.
func quartiles(sorted []float64) (q1, q3 float64) {
	n := len(sorted)
	mid := n / 2
	lower := sorted[:mid]
	var upper []float64
	if n%2 == 0 {
		upper = sorted[mid:]
	} else {
		upper = sorted[mid+1:]
	}
	return medianOfSorted(lower), medianOfSorted(upper)
}

func medianOfSorted(s []float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func detectIQR(values []float64, st Stats, threshold float64) []Anomaly {
	iqr := st.Q3 - st.Q1
	lower := st.Q1 - threshold*iqr
	upper := st.Q3 + threshold*iqr

	var out []Anomaly
	for i, v := range values {
		if v < lower || v > upper {
			dist := math.Max(lower-v, v-upper)
			out = append(out, Anomaly{Index: i, Value: v, Score: dist})
		}
	}
	return out
}

func detectMAD(values []float64, threshold float64) ([]Anomaly, error) {
	median, err := stats.Median(stats.Float64Data(values))
	if err != nil {
		return nil, err
	}
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}
	mad, err := stats.Median(stats.Float64Data(deviations))
	if err != nil {
		return nil, err
	}
	if mad == 0 {
		return nil, nil
	}
	var out []Anomaly
	for i, v := range values {
		score := 0.6745 * (v - median) / mad
		if math.Abs(score) > threshold {
			out = append(out, Anomaly{Index: i, Value: v, Score: score})
		}
	}
	return out, nil
}

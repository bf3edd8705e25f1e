package analytics

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/recording"
	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

func TestPearsonPerfectCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}
	r, err := Pearson(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-1.0) > 1e-9 {
		t.Fatalf("expected r=1.0, got %v", r)
	}
}

func TestPearsonInsufficientOverlap(t *testing.T) {
	if _, err := Pearson([]float64{1}, []float64{1}); err != ErrInsufficientOverlap {
		t.Fatalf("expected ErrInsufficientOverlap, got %v", err)
	}
}

func TestDetectIQRFindsOutlier(t *testing.T) {
	values := []float64{10, 11, 9, 10, 12, 11, 10, 9, 100}
	result, err := Detect(values, MethodIQR, DefaultIQRMultiplier)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Anomalies) != 1 || result.Anomalies[0].Index != 8 {
		t.Fatalf("expected single anomaly at index 8, got %+v", result.Anomalies)
	}
}

func TestDetectZScoreFindsOutlier(t *testing.T) {
	values := []float64{10, 11, 9, 10, 12, 11, 10, 9, 10, 11, 200}
	result, err := Detect(values, MethodZScore, DefaultZScoreThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Anomalies) != 1 {
		t.Fatalf("expected exactly 1 anomaly, got %+v", result.Anomalies)
	}
}

// TestDetectZScoreScenarioSix exercises the [10,10,10,10,100] case directly:
// with n=4 identical inliers and one outlier, the outlier's z-score is
// always exactly sqrt(n) = 2.0 regardless of the outlier's magnitude (the
// outlier's deviation and the resulting standard deviation scale together).
// That bounds what any threshold above 2.0 can ever flag for this shape of
// input, and demonstrates the monotonicity property directly: lowering the
// threshold below that bound flags the point, raising it above never does.
func TestDetectZScoreScenarioSix(t *testing.T) {
	values := []float64{10, 10, 10, 10, 100}

	loose, err := Detect(values, MethodZScore, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(loose.Anomalies) != 1 || loose.Anomalies[0].Index != 4 {
		t.Fatalf("expected index 4 flagged at threshold 1.5, got %+v", loose.Anomalies)
	}
	if math.Abs(math.Abs(loose.Anomalies[0].Score)-2.0) > 1e-9 {
		t.Fatalf("expected |score|=2.0, got %v", loose.Anomalies[0].Score)
	}

	strict, err := Detect(values, MethodZScore, DefaultZScoreThreshold)
	if err != nil {
		t.Fatal(err)
	}
	if len(strict.Anomalies) != 0 {
		t.Fatalf("expected no anomalies at threshold 3.0, got %+v", strict.Anomalies)
	}
}

func TestQuartilesIndexSlicing(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	q1, q3 := quartiles(sorted)
	if q1 != 2.5 || q3 != 6.5 {
		t.Fatalf("expected q1=2.5 q3=6.5, got q1=%v q3=%v", q1, q3)
	}
}

func TestDetectPeriodicityFindsSineWave(t *testing.T) {
	const n = 64
	const periodSamples = 8.0
	var series rate.FloatSeries
	for i := 0; i < n; i++ {
		v := math.Sin(2 * math.Pi * float64(i) / periodSamples)
		series = append(series, rate.Point{TimestampNS: int64(i) * int64(1e9), Value: v})
	}
	result := DetectPeriodicity(series, 1.0, 5)
	if !result.Found {
		t.Fatal("expected a periodic component to be found")
	}
	if math.Abs(result.Best.PeriodSeconds-periodSamples) > 0.5 {
		t.Fatalf("expected period near %v seconds, got %v", periodSamples, result.Best.PeriodSeconds)
	}
	if result.Best.FrequencyHz <= 0 {
		t.Fatalf("expected a positive frequency, got %v", result.Best.FrequencyHz)
	}
	if result.Best.RelativePower <= 0 || result.Best.RelativePower > 100 {
		t.Fatalf("expected relative power in (0, 100], got %v", result.Best.RelativePower)
	}
}

func TestLevenshteinBasic(t *testing.T) {
	if d := levenshtein("kitten", "sitting"); d != 3 {
		t.Fatalf("expected edit distance 3, got %d", d)
	}
}

func TestSimilarMetricsRanksPrefixAboveUnrelated(t *testing.T) {
	candidates := []string{"cpu_usage_seconds_total", "memory_free_bytes", "cpu_migrations_total"}
	out := SimilarMetrics("cpu_usage", candidates, 2)
	if len(out) == 0 || out[0] != "cpu_usage_seconds_total" {
		t.Fatalf("expected cpu_usage_seconds_total ranked first, got %v", out)
	}
}

func TestDiscoverCorrelationsEndToEnd(t *testing.T) {
	m := recording.NewMemory(recording.Header{Source: "test", Version: "1", IntervalNS: int64(1e9)})
	ts := []int64{0, 1e9, 2e9, 3e9, 4e9}
	if err := m.AppendColumn(recording.Column{
		MetricName: "target_gauge", Kind: metric.KindGauge,
		Labels: map[string]string{}, TimestampsNS: ts,
		ValuesF64: []float64{1, 2, 3, 4, 5},
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendColumn(recording.Column{
		MetricName: "candidate_gauge", Kind: metric.KindGauge,
		Labels: map[string]string{}, TimestampsNS: ts,
		ValuesF64: []float64{2, 4, 6, 8, 10},
	}); err != nil {
		t.Fatal(err)
	}
	db, err := tsdb.Load(m)
	if err != nil {
		t.Fatal(err)
	}
	gc, _ := db.Gauges("target_gauge", nil)
	target := gc.Iter()[0].Series

	results, err := DiscoverCorrelations(context.Background(), db, target, []string{"candidate_gauge"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || math.Abs(results[0].Result.Best.Correlation-1.0) > 1e-9 {
		t.Fatalf("expected perfect correlation with candidate_gauge, got %+v", results)
	}
}

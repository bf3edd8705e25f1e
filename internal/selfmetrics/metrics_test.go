package selfmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveDurationRecordsSample(t *testing.T) {
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_observe_duration_seconds"})
	ObserveDuration(hist, time.Now().Add(-10*time.Millisecond))

	m := &dto.Metric{}
	if err := hist.Write(m); err != nil {
		t.Fatal(err)
	}
	if m.Histogram.GetSampleCount() != 1 {
		t.Fatalf("expected 1 sample recorded, got %d", m.Histogram.GetSampleCount())
	}
}

func TestSamplerMetricsAcceptLabels(t *testing.T) {
	SamplerRefreshDuration.WithLabelValues("cpu").Observe(0.001)
	SamplerRefreshErrors.WithLabelValues("cpu").Inc()
	SamplerDegraded.WithLabelValues("cpu").Set(1)
	RegistryEntries.WithLabelValues("counter").Set(5)
	QueryEvalDuration.WithLabelValues("vector").Observe(0.002)
	QueryEvalErrors.WithLabelValues("unknown_metric").Inc()
	AnalyticsPassDuration.WithLabelValues("correlation").Observe(0.5)
	HTTPRequestDuration.WithLabelValues("/metrics", "200").Observe(0.01)
}

package rate

import "testing"

func TestRateWrapSafety(t *testing.T) {
	c := CounterSeries{
		{TimestampNS: 0, Value: 0},
		{TimestampNS: 1e9, Value: 500e6},
		{TimestampNS: 2e9, Value: 1e9},
	}
	r := Rate(c)
	if len(r) != 2 {
		t.Fatalf("expected 2 rate points, got %d", len(r))
	}
	for _, p := range r {
		if p.Value < 0 {
			t.Fatalf("rate produced negative value %v", p.Value)
		}
	}
	// 500e6 ns of CPU time per second is 5e8 ns/s, i.e. 0.5 cores.
	if r[1].Value/1e9 != 0.5 {
		t.Fatalf("expected 5e8 ns/s (0.5 cores), got %v", r[1].Value)
	}
}

func TestRateDropsCounterReset(t *testing.T) {
	c := CounterSeries{
		{TimestampNS: 0, Value: 1000},
		{TimestampNS: 1e9, Value: 5}, // reset: new < old by more than 2^63 worth of wrap
	}
	r := Rate(c)
	if len(r) != 0 {
		t.Fatalf("expected counter reset interval to be dropped, got %d points", len(r))
	}
}

func TestIRateCPUUsageScenario(t *testing.T) {
	c := CounterSeries{
		{TimestampNS: 0, Value: 0},
		{TimestampNS: 1e9, Value: 500e6},
		{TimestampNS: 2e9, Value: 1e9},
	}
	v, ok := IRate(c, 2e9, 2e9)
	if !ok {
		t.Fatal("expected irate to succeed")
	}
	if v/1e9 != 0.5 {
		t.Fatalf("expected 5e8 ns/s (0.5 cores), got %v", v)
	}
}

func TestIRateInsufficientSamples(t *testing.T) {
	c := CounterSeries{{TimestampNS: 2e9, Value: 1e9}}
	if _, ok := IRate(c, 2e9, 1e9); ok {
		t.Fatal("expected irate to report no value with fewer than two samples in window")
	}
}

func TestSumAlignment(t *testing.T) {
	a := FloatSeries{{0, 1}, {1, 2}, {2, 3}}
	b := FloatSeries{{1, 10}, {2, 20}, {3, 30}}
	s := Sum([]FloatSeries{a, b})
	// Aligned keys are the intersection {1, 2}.
	if len(s) != 2 {
		t.Fatalf("expected 2 aligned points, got %d", len(s))
	}
	want := map[int64]float64{1: 12, 2: 23}
	for _, p := range s {
		if want[p.TimestampNS] != p.Value {
			t.Fatalf("ts=%d: got %v want %v", p.TimestampNS, p.Value, want[p.TimestampNS])
		}
	}
}

func TestCacheHitRatioScenario(t *testing.T) {
	access := CounterSeries{{0, 0}, {5e9, 5000}}
	miss := CounterSeries{{0, 0}, {5e9, 250}}
	accessRate, _ := IRate(access, 5e9, 5e9)
	missRate, _ := IRate(miss, 5e9, 5e9)
	ratio := (1 - missRate/accessRate) * 100
	if ratio != 95.0 {
		t.Fatalf("expected 95.0 hit ratio, got %v", ratio)
	}
}

func TestAverageRateMatchesTotalOverSpan(t *testing.T) {
	c := CounterSeries{{0, 0}, {1e9, 100}, {2e9, 300}}
	if got := AverageRate(c); got != 150 {
		t.Fatalf("expected average rate 150, got %v", got)
	}
}

package exposition

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

func TestWriteCounterGetsTotalSuffix(t *testing.T) {
	reg := metric.NewRegistry()
	c, err := reg.RegisterCounter("cpu_usage_seconds", nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Add(42)

	var buf bytes.Buffer
	if err := Write(&buf, reg); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "cpu_usage_seconds_total 42") {
		t.Fatalf("expected _total suffix in output, got:\n%s", out)
	}
}

func TestWritePreservesSlashInGroupLabelValue(t *testing.T) {
	reg := metric.NewRegistry()
	g, err := reg.RegisterCounterGroup("cgroup_cpu_usage", nil, 2, metric.LabelCgroupName)
	if err != nil {
		t.Fatal(err)
	}
	g.SetMetadata(0, metric.LabelCgroupName, "/system.slice/foo.service")
	g.Insert(0, 100)

	var buf bytes.Buffer
	if err := Write(&buf, reg); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `name="/system.slice/foo.service"`) {
		t.Fatalf("expected label value preserved (only the metric name is sanitized), got:\n%s", out)
	}
}

func TestWriteHistogramEmitsPercentileLines(t *testing.T) {
	reg := metric.NewRegistry()
	h, err := reg.RegisterHistogram("request_latency_seconds", nil, 4, 20)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		h.Increment(uint64(i))
	}

	var buf bytes.Buffer
	if err := Write(&buf, reg); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`percentile="50"`, `percentile="90"`, `percentile="99"`, `percentile="99.9"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output, got:\n%s", want, out)
		}
	}
}

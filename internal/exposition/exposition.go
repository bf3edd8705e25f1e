// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package exposition renders a metric.Registry as the Prometheus text
// format the agent's /metrics endpoint serves.
package exposition

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

// percentiles are the fixed set histograms are rendered at, each becoming
// its own gauge line with a percentile label rather than Prometheus's
// native `le`-bucketed histogram type — the registry's bucket layout isn't
// the classic cumulative-bucket shape so a direct percentile line is the
// more faithful rendering of what the registry actually stores.
var percentiles = []float64{50, 90, 99, 99.9}

// Write renders every entry in reg to w in Prometheus text exposition
// format, in registration order.
func Write(w io.Writer, reg *metric.Registry) error {
	for _, e := range reg.Iterate() {
		if err := writeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w io.Writer, e metric.Entry) error {
	name := sanitizeName(e.Name)
	switch e.Kind {
	case metric.KindCounter:
		fullName := name
		if !strings.HasSuffix(fullName, "_total") {
			fullName += "_total"
		}
		fmt.Fprintf(w, "# TYPE %s %s\n", fullName, e.Kind.String())
		return writeLine(w, fullName, e.Metadata, float64(e.Counter.Value()))

	case metric.KindGauge:
		fmt.Fprintf(w, "# TYPE %s %s\n", name, e.Kind.String())
		return writeLine(w, name, e.Metadata, float64(e.Gauge.Value()))

	case metric.KindHistogram:
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		snap := e.Histogram.Snapshot()
		for _, p := range percentiles {
			meta := mergeMeta(e.Metadata, metric.LabelPercentile, formatPercentile(p))
			if err := writeLine(w, name, meta, snap.Percentile(p)); err != nil {
				return err
			}
		}
		return nil

	case metric.KindCounterGroup:
		fullName := name
		if !strings.HasSuffix(fullName, "_total") {
			fullName += "_total"
		}
		fmt.Fprintf(w, "# TYPE %s counter\n", fullName)
		for _, idx := range sortedIndices(e.CounterGroup.PopulatedIndices()) {
			indexMeta, _ := e.CounterGroup.Metadata(idx)
			meta := mergeMaps(e.Metadata, indexMeta)
			if err := writeLine(w, fullName, meta, float64(e.CounterGroup.Value(idx))); err != nil {
				return err
			}
		}
		return nil

	case metric.KindGaugeGroup:
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		for _, idx := range sortedIndices(e.GaugeGroup.PopulatedIndices()) {
			indexMeta, _ := e.GaugeGroup.Metadata(idx)
			meta := mergeMaps(e.Metadata, indexMeta)
			if err := writeLine(w, name, meta, float64(e.GaugeGroup.Value(idx))); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("exposition: unknown kind for metric %s", e.Name)
	}
}

func writeLine(w io.Writer, name string, meta map[string]string, value float64) error {
	_, err := fmt.Fprintf(w, "%s%s %s\n", name, formatLabels(meta), strconv.FormatFloat(value, 'g', -1, 64))
	return err
}

// sanitizeName replaces characters Prometheus exposition format does not
// allow in a metric name — notably '/' in cgroup-derived names — with '_'.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_' || r == ':':
			return r
		default:
			return '_'
		}
	}, name)
}

func formatLabels(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(meta[k]))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

func formatPercentile(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func mergeMeta(base map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

func mergeMaps(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func sortedIndices(idx []int) []int {
	out := append([]int(nil), idx...)
	sort.Ints(out)
	return out
}

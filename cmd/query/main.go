// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Command query is the offline analysis CLI over a recorded file:
// it loads a recording into a tsdb.DB and evaluates a query-language
// expression or one of the analytics passes against it.
//
// Exit codes:
//
//	0 - success
//	2 - argument or query parse error
//	3 - empty result (the query or pass produced no data)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/rezolus-go/internal/analytics"
	"github.com/tomtom215/rezolus-go/internal/promql"
	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/recording"
	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}

	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	recordingPath := fs.String("recording", "", "path to a DuckDB-backed recording")

	switch cmd {
	case "query":
		return runQuery(fs, recordingPath, args[1:])
	case "query-range":
		return runQueryRange(fs, recordingPath, args[1:])
	case "correlate":
		return runCorrelate(fs, recordingPath, args[1:])
	case "periodicity":
		return runPeriodicity(fs, recordingPath, args[1:])
	case "anomaly":
		return runAnomaly(fs, recordingPath, args[1:])
	case "search":
		return runSearch(fs, recordingPath, args[1:])
	default:
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: query <query|query-range|correlate|periodicity|anomaly|search> -recording <path> [flags]")
}

func openDB(recordingPath string) (*tsdb.DB, error) {
	if recordingPath == "" {
		return nil, fmt.Errorf("-recording is required")
	}
	loader, err := recording.OpenDuckDB(recordingPath)
	if err != nil {
		return nil, err
	}
	defer loader.Close()
	return tsdb.Load(loader)
}

func runQuery(fs *flag.FlagSet, recordingPath *string, args []string) int {
	expr := fs.String("expr", "", "query expression")
	at := fs.String("time", "", "evaluation time (RFC3339, default now)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	db, err := openDB(*recordingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		return 2
	}

	ts := time.Now()
	if *at != "" {
		ts, err = time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query: bad -time:", err)
			return 2
		}
	}

	engine := promql.NewEngine(db)
	result, err := engine.Query(*expr, ts)
	if err != nil {
		return classifyQueryErr(err)
	}
	return printResult(result)
}

func runQueryRange(fs *flag.FlagSet, recordingPath *string, args []string) int {
	expr := fs.String("expr", "", "query expression")
	start := fs.String("start", "", "range start (RFC3339)")
	end := fs.String("end", "", "range end (RFC3339)")
	step := fs.String("step", "15s", "step duration")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	db, err := openDB(*recordingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query-range:", err)
		return 2
	}

	startT, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query-range: bad -start:", err)
		return 2
	}
	endT, err := time.Parse(time.RFC3339, *end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query-range: bad -end:", err)
		return 2
	}
	stepD, err := time.ParseDuration(*step)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query-range: bad -step:", err)
		return 2
	}

	engine := promql.NewEngine(db)
	result, err := engine.QueryRange(*expr, startT, endT, stepD)
	if err != nil {
		return classifyQueryErr(err)
	}
	return printResult(result)
}

func classifyQueryErr(err error) int {
	fmt.Fprintln(os.Stderr, "query:", err)
	if _, ok := err.(*promql.EmptyResultError); ok {
		return 3
	}
	return 2
}

// resultJSON is the wire shape printed to stdout — promql.Result carries an
// internally-ordered metric.Labels that marshals to "{}" as-is, so results
// are flattened to plain label maps before encoding.
type resultJSON struct {
	ResultType string           `json:"resultType"`
	Scalar     float64          `json:"scalar,omitempty"`
	Vector     []map[string]any `json:"vector,omitempty"`
	Matrix     []map[string]any `json:"matrix,omitempty"`
}

func printResult(result promql.Result) int {
	empty := false
	out := resultJSON{ResultType: result.Type.String()}
	switch result.Type {
	case promql.ResultScalar:
		out.Scalar = result.Scalar
	case promql.ResultVector:
		empty = len(result.Vector) == 0
		for _, s := range result.Vector {
			out.Vector = append(out.Vector, map[string]any{"labels": s.Labels.Map(), "value": s.Value})
		}
	case promql.ResultMatrix:
		empty = len(result.Matrix) == 0
		for _, series := range result.Matrix {
			points := make([]map[string]any, len(series.Points))
			for i, p := range series.Points {
				points[i] = map[string]any{"timestamp": p.TimestampNS, "value": p.Value}
			}
			out.Matrix = append(out.Matrix, map[string]any{"labels": series.Labels.Map(), "points": points})
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
	if empty {
		return 3
	}
	return 0
}

func runCorrelate(fs *flag.FlagSet, recordingPath *string, args []string) int {
	metricName := fs.String("metric", "", "target metric name")
	concurrency := fs.Int("concurrency", 4, "candidate evaluation concurrency")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	db, err := openDB(*recordingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "correlate:", err)
		return 2
	}

	target := firstFloatSeries(db, *metricName)
	if target == nil {
		fmt.Fprintf(os.Stderr, "correlate: metric %q not found\n", *metricName)
		return 2
	}

	candidates := analytics.ExtractMetricNames(db)
	results, err := analytics.DiscoverCorrelations(context.Background(), db, target, candidates, *concurrency)
	if err != nil {
		fmt.Fprintln(os.Stderr, "correlate:", err)
		return 2
	}
	if len(results) == 0 {
		return 3
	}
	return printJSON(results)
}

func runPeriodicity(fs *flag.FlagSet, recordingPath *string, args []string) int {
	metricName := fs.String("metric", "", "target metric name")
	intervalSec := fs.Float64("interval-sec", 1.0, "nominal sample interval in seconds")
	topK := fs.Int("top", 5, "maximum ranked peaks to report")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	db, err := openDB(*recordingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "periodicity:", err)
		return 2
	}

	series := firstFloatSeries(db, *metricName)
	if series == nil {
		fmt.Fprintf(os.Stderr, "periodicity: metric %q not found\n", *metricName)
		return 2
	}

	result := analytics.DetectPeriodicity(series, *intervalSec, *topK)
	return printJSON(result)
}

func runAnomaly(fs *flag.FlagSet, recordingPath *string, args []string) int {
	metricName := fs.String("metric", "", "target metric name")
	method := fs.String("method", "zscore", "detection method: zscore, iqr, mad")
	threshold := fs.Float64("threshold", 0, "anomaly threshold (default: 3.0 zscore, 1.5 iqr, 3.5 mad)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	db, err := openDB(*recordingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "anomaly:", err)
		return 2
	}

	series := firstFloatSeries(db, *metricName)
	if series == nil {
		fmt.Fprintf(os.Stderr, "anomaly: metric %q not found\n", *metricName)
		return 2
	}
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	var m analytics.Method
	t := *threshold
	switch *method {
	case "zscore":
		m = analytics.MethodZScore
		if t == 0 {
			t = analytics.DefaultZScoreThreshold
		}
	case "iqr":
		m = analytics.MethodIQR
		if t == 0 {
			t = analytics.DefaultIQRMultiplier
		}
	case "mad":
		m = analytics.MethodMAD
		if t == 0 {
			t = analytics.DefaultMADThreshold
		}
	default:
		fmt.Fprintf(os.Stderr, "anomaly: unknown method %q\n", *method)
		return 2
	}

	result, err := analytics.Detect(values, m, t)
	if err != nil {
		fmt.Fprintln(os.Stderr, "anomaly:", err)
		return 2
	}
	if len(result.Anomalies) == 0 {
		return 3
	}
	return printJSON(result)
}

func runSearch(fs *flag.FlagSet, recordingPath *string, args []string) int {
	query := fs.String("query", "", "fuzzy metric name search term")
	limit := fs.Int("limit", 10, "maximum matches returned")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	db, err := openDB(*recordingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "search:", err)
		return 2
	}

	candidates := analytics.ExtractMetricNames(db)
	matches := analytics.SimilarMetrics(*query, candidates, *limit)
	if len(matches) == 0 {
		return 3
	}
	return printJSON(matches)
}

// firstFloatSeries returns the first series recorded under name, preferring
// a gauge's raw values and falling back to a counter's derived rate — the
// same either-kind convenience the query engine's selector resolution
// gives PromQL expressions.
func firstFloatSeries(db *tsdb.DB, name string) rate.FloatSeries {
	if coll, ok := db.Gauges(name, nil); ok {
		for _, s := range coll.Iter() {
			return s.Series
		}
	}
	if coll, ok := db.Counters(name, nil); ok {
		for _, s := range coll.Rate().Iter() {
			return s.Series
		}
	}
	return nil
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
	return 0
}

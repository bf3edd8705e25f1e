// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/rezolus-go/internal/exposition"
	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/promql"
	"github.com/tomtom215/rezolus-go/internal/sampler"
	"github.com/tomtom215/rezolus-go/internal/selfmetrics"
	"github.com/tomtom215/rezolus-go/internal/validation"
)

// requestMetrics records internal/selfmetrics.HTTPRequestDuration for
// every request, labeled by request URL path and status code, the HTTP
// counterpart to tickerService's sampler-refresh instrumentation.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		selfmetrics.HTTPRequestDuration.
			WithLabelValues(r.URL.Path, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// metricsHandler renders the registry in Prometheus text format.
func metricsHandler(reg *metric.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if err := exposition.Write(w, reg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// statusHandler reports every sampler's current health.
func statusHandler(status *sampler.StatusTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, status.Snapshot())
	}
}

// queryHandler serves an instant PromQL-compatible query.
func queryHandler(engine *EngineHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := engine.current()
		if e == nil {
			writeError(w, http.StatusServiceUnavailable, "no recording loaded")
			return
		}

		req := QueryRequest{
			Query: r.URL.Query().Get("query"),
			Time:  r.URL.Query().Get("time"),
		}
		if verr := validation.ValidateStruct(&req); verr != nil {
			writeValidationError(w, verr)
			return
		}

		ts, err := parseQueryTime(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		start := time.Now()
		result, err := e.Query(req.Query, ts)
		if err != nil {
			handleQueryError(w, err)
			return
		}
		selfmetrics.QueryEvalDuration.WithLabelValues(result.Type.String()).Observe(time.Since(start).Seconds())
		writeJSON(w, http.StatusOK, resultResponse(result))
	}
}

// queryRangeHandler serves a range query.
func queryRangeHandler(engine *EngineHolder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := engine.current()
		if e == nil {
			writeError(w, http.StatusServiceUnavailable, "no recording loaded")
			return
		}

		req := QueryRangeRequest{
			Query: r.URL.Query().Get("query"),
			Start: r.URL.Query().Get("start"),
			End:   r.URL.Query().Get("end"),
			Step:  r.URL.Query().Get("step"),
		}
		if verr := validation.ValidateStruct(&req); verr != nil {
			writeValidationError(w, verr)
			return
		}

		start, err := parseQueryTime(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start: "+err.Error())
			return
		}
		end, err := parseQueryTime(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end: "+err.Error())
			return
		}
		step, err := time.ParseDuration(req.Step)
		if err != nil {
			writeError(w, http.StatusBadRequest, "step: "+err.Error())
			return
		}

		evalStart := time.Now()
		result, err := e.QueryRange(req.Query, start, end, step)
		if err != nil {
			handleQueryError(w, err)
			return
		}
		selfmetrics.QueryEvalDuration.WithLabelValues(result.Type.String()).Observe(time.Since(evalStart).Seconds())
		writeJSON(w, http.StatusOK, resultResponse(result))
	}
}

func handleQueryError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *promql.UnknownMetricError:
		selfmetrics.QueryEvalErrors.WithLabelValues("unknown_metric").Inc()
		writeError(w, http.StatusNotFound, err.Error())
	case *promql.BadSelectorError:
		selfmetrics.QueryEvalErrors.WithLabelValues("bad_selector").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case *promql.TypeMismatchError:
		selfmetrics.QueryEvalErrors.WithLabelValues("type_mismatch").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case *promql.EmptyResultError:
		selfmetrics.QueryEvalErrors.WithLabelValues("empty_result").Inc()
		writeError(w, http.StatusNotFound, err.Error())
	default:
		selfmetrics.QueryEvalErrors.WithLabelValues("internal").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseQueryTime accepts an empty string (meaning "now"), a Unix timestamp
// in seconds, or RFC3339 — the same two forms Prometheus's own HTTP API
// accepts for its time parameter.
func parseQueryTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(0, int64(sec*float64(time.Second))), nil
	}
	return time.Parse(time.RFC3339, s)
}

type sampleJSON struct {
	Labels map[string]string `json:"labels"`
	Value  float64           `json:"value"`
}

type pointJSON struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

type seriesJSON struct {
	Labels map[string]string `json:"labels"`
	Points []pointJSON       `json:"points"`
}

type resultJSON struct {
	ResultType string       `json:"resultType"`
	Scalar     float64      `json:"scalar,omitempty"`
	Vector     []sampleJSON `json:"vector,omitempty"`
	Matrix     []seriesJSON `json:"matrix,omitempty"`
}

// resultResponse converts a promql.Result into its wire representation,
// the JSON counterpart to Prometheus's own `{resultType, result}` shape.
func resultResponse(r promql.Result) resultJSON {
	out := resultJSON{ResultType: r.Type.String()}
	switch r.Type {
	case promql.ResultScalar:
		out.Scalar = r.Scalar
	case promql.ResultVector:
		for _, s := range r.Vector {
			out.Vector = append(out.Vector, sampleJSON{Labels: s.Labels.Map(), Value: s.Value})
		}
	case promql.ResultMatrix:
		for _, series := range r.Matrix {
			sj := seriesJSON{Labels: series.Labels.Map()}
			for _, p := range series.Points {
				sj.Points = append(sj.Points, pointJSON{Timestamp: p.TimestampNS, Value: p.Value})
			}
			out.Matrix = append(out.Matrix, sj)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, validation.APIError{Code: strconv.Itoa(status), Message: msg})
}

func writeValidationError(w http.ResponseWriter, verr *validation.Error) {
	apiErr := verr.ToAPIError()
	writeJSON(w, http.StatusBadRequest, apiErr)
}

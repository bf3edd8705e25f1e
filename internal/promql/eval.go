package promql

import (
	"math"
	"regexp"
	"sort"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

type ekind int

const (
	ekScalar ekind = iota
	ekVector
	ekRange
)

// rangeSeries is the raw-sample window gathered for a range selector, kept
// separate from a derived Vector because wrap-safe rate functions need the
// original counter samples, not an already-computed rate.
type rangeSeries struct {
	Labels    metric.Labels
	IsCounter bool
	Counter   rate.CounterSeries
	Float     rate.FloatSeries
}

type evalValue struct {
	kind   ekind
	scalar float64
	vector Vector
	ranges []rangeSeries
}

// evalExpr recursively evaluates e at instant timestamp tNS (nanoseconds).
func evalExpr(db *tsdb.DB, tNS int64, e Expr) (evalValue, error) {
	switch n := e.(type) {
	case *NumberLiteral:
		return evalValue{kind: ekScalar, scalar: n.Value}, nil
	case *VectorSelector:
		return evalVectorSelector(db, tNS, n)
	case *AggrExpr:
		return evalAggr(db, tNS, n)
	case *CallExpr:
		return evalCall(db, tNS, n)
	case *BinaryExpr:
		return evalBinary(db, tNS, n)
	default:
		return evalValue{}, &BadSelectorError{Reason: "unrecognized expression node"}
	}
}

func compileMatchers(matchers []Matcher) ([]Matcher, map[int]*regexp.Regexp, error) {
	res := make(map[int]*regexp.Regexp)
	for i, m := range matchers {
		if m.Op == MatchRegexp || m.Op == MatchNotRegexp {
			re, err := regexp.Compile("^(?:" + m.Value + ")$")
			if err != nil {
				return nil, nil, &BadSelectorError{Reason: "invalid regexp in label matcher: " + err.Error()}
			}
			res[i] = re
		}
	}
	return matchers, res, nil
}

func matchLabels(labels metric.Labels, matchers []Matcher, compiled map[int]*regexp.Regexp) bool {
	for i, m := range matchers {
		v, ok := labels.Get(m.Label)
		switch m.Op {
		case MatchEqual:
			if !ok || v != m.Value {
				return false
			}
		case MatchNotEqual:
			if ok && v == m.Value {
				return false
			}
		case MatchRegexp:
			if !ok || !compiled[i].MatchString(v) {
				return false
			}
		case MatchNotRegexp:
			if ok && compiled[i].MatchString(v) {
				return false
			}
		}
	}
	return true
}

// valueAtOrBeforeCounter returns the raw counter value of the last sample at
// or before t, and whether one exists.
func valueAtOrBeforeCounter(s rate.CounterSeries, t int64) (uint64, bool) {
	var best uint64
	found := false
	for _, p := range s {
		if p.TimestampNS <= t {
			best = p.Value
			found = true
		} else {
			break
		}
	}
	return best, found
}

func valueAtOrBeforeFloat(s rate.FloatSeries, t int64) (float64, bool) {
	var best float64
	found := false
	for _, p := range s {
		if p.TimestampNS <= t {
			best = p.Value
			found = true
		} else {
			break
		}
	}
	return best, found
}

func evalVectorSelector(db *tsdb.DB, tNS int64, vs *VectorSelector) (evalValue, error) {
	_, compiled, err := compileMatchers(vs.Matchers)
	if err != nil {
		return evalValue{}, err
	}

	if vs.Range > 0 {
		var out []rangeSeries
		startNS := tNS - vs.Range.Nanoseconds()
		if cc, ok := db.Counters(vs.Name, nil); ok {
			for _, s := range cc.Iter() {
				if !matchLabels(s.Labels, vs.Matchers, compiled) {
					continue
				}
				var windowed rate.CounterSeries
				for _, p := range s.Series {
					if p.TimestampNS >= startNS && p.TimestampNS <= tNS {
						windowed = append(windowed, p)
					}
				}
				out = append(out, rangeSeries{Labels: s.Labels, IsCounter: true, Counter: windowed})
			}
			return evalValue{kind: ekRange, ranges: out}, nil
		}
		if gc, ok := db.Gauges(vs.Name, nil); ok {
			for _, s := range gc.Iter() {
				if !matchLabels(s.Labels, vs.Matchers, compiled) {
					continue
				}
				var windowed rate.FloatSeries
				for _, p := range s.Series {
					if p.TimestampNS >= startNS && p.TimestampNS <= tNS {
						windowed = append(windowed, p)
					}
				}
				out = append(out, rangeSeries{Labels: s.Labels, IsCounter: false, Float: windowed})
			}
			return evalValue{kind: ekRange, ranges: out}, nil
		}
		return evalValue{}, &UnknownMetricError{Name: vs.Name}
	}

	var vec Vector
	if cc, ok := db.Counters(vs.Name, nil); ok {
		for _, s := range cc.Iter() {
			if !matchLabels(s.Labels, vs.Matchers, compiled) {
				continue
			}
			if v, found := valueAtOrBeforeCounter(s.Series, tNS); found {
				vec = append(vec, Sample{Labels: s.Labels, Value: float64(v)})
			}
		}
		return evalValue{kind: ekVector, vector: vec}, nil
	}
	if gc, ok := db.Gauges(vs.Name, nil); ok {
		for _, s := range gc.Iter() {
			if !matchLabels(s.Labels, vs.Matchers, compiled) {
				continue
			}
			if v, found := valueAtOrBeforeFloat(s.Series, tNS); found {
				vec = append(vec, Sample{Labels: s.Labels, Value: v})
			}
		}
		return evalValue{kind: ekVector, vector: vec}, nil
	}
	return evalValue{}, &UnknownMetricError{Name: vs.Name}
}

func evalAggr(db *tsdb.DB, tNS int64, a *AggrExpr) (evalValue, error) {
	inner, err := evalExpr(db, tNS, a.Expr)
	if err != nil {
		return evalValue{}, err
	}
	if inner.kind != ekVector {
		return evalValue{}, &TypeMismatchError{Op: a.Op, LHS: "vector", RHS: "non-vector"}
	}

	type group struct {
		labels metric.Labels
		values []float64
	}
	groups := make(map[string]*group)
	var order []string
	for _, s := range inner.vector {
		var gl metric.Labels
		if a.Grouping == nil {
			gl = metric.NewLabels(nil)
		} else if a.Without {
			gl = s.Labels.Without(a.Grouping...)
		} else {
			gl = s.Labels.With(a.Grouping...)
		}
		key := gl.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{labels: gl}
			groups[key] = g
			order = append(order, key)
		}
		g.values = append(g.values, s.Value)
	}

	out := make(Vector, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, Sample{Labels: g.labels, Value: reduceAggr(a.Op, g.values)})
	}
	return evalValue{kind: ekVector, vector: out}, nil
}

func reduceAggr(op string, values []float64) float64 {
	switch op {
	case "sum":
		var s float64
		for _, v := range values {
			s += v
		}
		return s
	case "avg":
		var s float64
		for _, v := range values {
			s += v
		}
		return s / float64(len(values))
	case "min":
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case "max":
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case "count":
		return float64(len(values))
	case "stddev":
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))
		var sq float64
		for _, v := range values {
			d := v - mean
			sq += d * d
		}
		return math.Sqrt(sq / float64(len(values)))
	default:
		return 0
	}
}

func evalBinary(db *tsdb.DB, tNS int64, b *BinaryExpr) (evalValue, error) {
	lhs, err := evalExpr(db, tNS, b.LHS)
	if err != nil {
		return evalValue{}, err
	}
	rhs, err := evalExpr(db, tNS, b.RHS)
	if err != nil {
		return evalValue{}, err
	}

	if lhs.kind == ekScalar && rhs.kind == ekScalar {
		v, err := arith(b.Op, lhs.scalar, rhs.scalar)
		if err != nil {
			return evalValue{}, err
		}
		return evalValue{kind: ekScalar, scalar: v}, nil
	}
	if lhs.kind == ekVector && rhs.kind == ekScalar {
		out := make(Vector, len(lhs.vector))
		for i, s := range lhs.vector {
			v, err := arith(b.Op, s.Value, rhs.scalar)
			if err != nil {
				return evalValue{}, err
			}
			out[i] = Sample{Labels: s.Labels, Value: v}
		}
		return evalValue{kind: ekVector, vector: out}, nil
	}
	if lhs.kind == ekScalar && rhs.kind == ekVector {
		out := make(Vector, len(rhs.vector))
		for i, s := range rhs.vector {
			v, err := arith(b.Op, lhs.scalar, s.Value)
			if err != nil {
				return evalValue{}, err
			}
			out[i] = Sample{Labels: s.Labels, Value: v}
		}
		return evalValue{kind: ekVector, vector: out}, nil
	}
	if lhs.kind == ekVector && rhs.kind == ekVector {
		return evalVectorVectorBinary(b.Op, lhs.vector, rhs.vector)
	}
	return evalValue{}, &TypeMismatchError{Op: b.Op, LHS: kindName(lhs.kind), RHS: kindName(rhs.kind)}
}

func kindName(k ekind) string {
	switch k {
	case ekScalar:
		return "scalar"
	case ekVector:
		return "vector"
	default:
		return "range"
	}
}

func arith(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	case "%":
		return math.Mod(a, b), nil
	default:
		return 0, &BadSelectorError{Reason: "unsupported scalar operator " + op}
	}
}

// evalVectorVectorBinary matches samples by exact label-set equality, the
// simplest one-to-one matching rule applicable to same-selector vectors.
func evalVectorVectorBinary(op string, lhs, rhs Vector) (evalValue, error) {
	rhsByKey := make(map[string]Sample, len(rhs))
	for _, s := range rhs {
		rhsByKey[s.Labels.Key()] = s
	}

	switch op {
	case "and":
		var out Vector
		for _, s := range lhs {
			if _, ok := rhsByKey[s.Labels.Key()]; ok {
				out = append(out, s)
			}
		}
		return evalValue{kind: ekVector, vector: out}, nil
	case "unless":
		var out Vector
		for _, s := range lhs {
			if _, ok := rhsByKey[s.Labels.Key()]; !ok {
				out = append(out, s)
			}
		}
		return evalValue{kind: ekVector, vector: out}, nil
	case "or":
		out := append(Vector{}, lhs...)
		seen := make(map[string]bool, len(lhs))
		for _, s := range lhs {
			seen[s.Labels.Key()] = true
		}
		for _, s := range rhs {
			if !seen[s.Labels.Key()] {
				out = append(out, s)
			}
		}
		return evalValue{kind: ekVector, vector: out}, nil
	}

	var out Vector
	for _, s := range lhs {
		match, ok := rhsByKey[s.Labels.Key()]
		if !ok {
			continue
		}
		v, err := arith(op, s.Value, match.Value)
		if err != nil {
			return evalValue{}, err
		}
		out = append(out, Sample{Labels: s.Labels, Value: v})
	}
	return evalValue{kind: ekVector, vector: out}, nil
}

func evalCall(db *tsdb.DB, tNS int64, c *CallExpr) (evalValue, error) {
	switch c.Func {
	case "histogram_quantile":
		return evalHistogramQuantile(db, tNS, c)
	case "irate", "rate", "increase", "delta", "idelta",
		"sum_over_time", "avg_over_time", "min_over_time", "max_over_time", "count_over_time":
		return evalRangeFunc(db, tNS, c)
	default:
		return evalValue{}, &BadSelectorError{Reason: "unknown function " + c.Func}
	}
}

func evalHistogramQuantile(db *tsdb.DB, tNS int64, c *CallExpr) (evalValue, error) {
	if len(c.Args) != 2 {
		return evalValue{}, &BadSelectorError{Reason: "histogram_quantile expects 2 arguments"}
	}
	phiExpr, err := evalExpr(db, tNS, c.Args[0])
	if err != nil {
		return evalValue{}, err
	}
	if phiExpr.kind != ekScalar {
		return evalValue{}, &BadSelectorError{Reason: "histogram_quantile's first argument must be a scalar"}
	}
	vs, ok := c.Args[1].(*VectorSelector)
	if !ok || vs.Range != 0 {
		return evalValue{}, &BadSelectorError{Reason: "histogram_quantile's second argument must be an instant metric selector"}
	}
	hc, ok := db.Histograms(vs.Name, nil)
	if !ok {
		return evalValue{}, &UnknownMetricError{Name: vs.Name}
	}
	_, compiled, err := compileMatchers(vs.Matchers)
	if err != nil {
		return evalValue{}, err
	}
	a, n := hc.Params()
	var out Vector
	for _, s := range hc.Iter() {
		if !matchLabels(s.Labels, vs.Matchers, compiled) {
			continue
		}
		var chosen *tsdb.HistogramPoint
		for i := range s.Points {
			if s.Points[i].TimestampNS <= tNS {
				chosen = &s.Points[i]
			} else {
				break
			}
		}
		if chosen == nil {
			continue
		}
		snap := metric.SnapshotFromCounts(a, n, chosen.Counts)
		out = append(out, Sample{Labels: s.Labels, Value: snap.Percentile(phiExpr.scalar * 100)})
	}
	return evalValue{kind: ekVector, vector: out}, nil
}

func evalRangeFunc(db *tsdb.DB, tNS int64, c *CallExpr) (evalValue, error) {
	if len(c.Args) != 1 {
		return evalValue{}, &BadSelectorError{Reason: c.Func + " expects exactly 1 argument"}
	}
	vs, ok := c.Args[0].(*VectorSelector)
	if !ok || vs.Range == 0 {
		return evalValue{}, &BadSelectorError{Reason: c.Func + " requires a range vector argument, e.g. metric[5m]"}
	}
	inner, err := evalExpr(db, tNS, vs)
	if err != nil {
		return evalValue{}, err
	}
	if inner.kind != ekRange {
		return evalValue{}, &BadSelectorError{Reason: c.Func + " argument did not evaluate to a range vector"}
	}

	windowNS := vs.Range.Nanoseconds()
	var out Vector
	for _, rs := range inner.ranges {
		v, ok, err := applyRangeFunc(c.Func, rs, tNS, windowNS)
		if err != nil {
			return evalValue{}, err
		}
		if ok {
			out = append(out, Sample{Labels: rs.Labels, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Labels.Key() < out[j].Labels.Key() })
	return evalValue{kind: ekVector, vector: out}, nil
}

func applyRangeFunc(fn string, rs rangeSeries, tNS, windowNS int64) (float64, bool, error) {
	switch fn {
	case "irate":
		if !rs.IsCounter {
			return 0, false, &TypeMismatchError{Op: fn, LHS: "counter", RHS: "gauge"}
		}
		v, ok := rate.IRate(rs.Counter, tNS, windowNS)
		return v, ok, nil
	case "rate":
		if !rs.IsCounter {
			return 0, false, &TypeMismatchError{Op: fn, LHS: "counter", RHS: "gauge"}
		}
		return rate.RangeRate(rs.Counter, tNS, windowNS)
	case "increase":
		if !rs.IsCounter {
			return 0, false, &TypeMismatchError{Op: fn, LHS: "counter", RHS: "gauge"}
		}
		r, ok := rate.RangeRate(rs.Counter, tNS, windowNS)
		if !ok {
			return 0, false, nil
		}
		return r * float64(windowNS) / 1e9, true, nil
	case "delta":
		values := seriesValues(rs)
		if len(values) < 2 {
			return 0, false, nil
		}
		return values[len(values)-1] - values[0], true, nil
	case "idelta":
		values := seriesValues(rs)
		if len(values) < 2 {
			return 0, false, nil
		}
		return values[len(values)-1] - values[len(values)-2], true, nil
	case "sum_over_time":
		values := seriesValues(rs)
		if len(values) == 0 {
			return 0, false, nil
		}
		var s float64
		for _, v := range values {
			s += v
		}
		return s, true, nil
	case "avg_over_time":
		values := seriesValues(rs)
		if len(values) == 0 {
			return 0, false, nil
		}
		var s float64
		for _, v := range values {
			s += v
		}
		return s / float64(len(values)), true, nil
	case "min_over_time":
		values := seriesValues(rs)
		if len(values) == 0 {
			return 0, false, nil
		}
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m, true, nil
	case "max_over_time":
		values := seriesValues(rs)
		if len(values) == 0 {
			return 0, false, nil
		}
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m, true, nil
	case "count_over_time":
		values := seriesValues(rs)
		return float64(len(values)), len(values) > 0, nil
	default:
		return 0, false, &BadSelectorError{Reason: "unknown range function " + fn}
	}
}

func seriesValues(rs rangeSeries) []float64 {
	if rs.IsCounter {
		out := make([]float64, len(rs.Counter))
		for i, p := range rs.Counter {
			out[i] = float64(p.Value)
		}
		return out
	}
	out := make([]float64, len(rs.Float))
	for i, p := range rs.Float {
		out[i] = p.Value
	}
	return out
}

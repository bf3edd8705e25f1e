package promql

import (
	"time"

	"github.com/tomtom215/rezolus-go/internal/rate"
	"github.com/tomtom215/rezolus-go/internal/tsdb"
)

func pointAt(t time.Time, v float64) rate.Point {
	return rate.Point{TimestampNS: t.UnixNano(), Value: v}
}

// Engine evaluates parsed queries against one loaded TSDB, the query-side
// counterpart to the sampler-driven write path.
type Engine struct {
	db *tsdb.DB
}

// NewEngine wraps a loaded DB for querying.
func NewEngine(db *tsdb.DB) *Engine {
	return &Engine{db: db}
}

// Query evaluates expr as an instant query at timestamp t, returning a
// Scalar or Vector result.
func (e *Engine) Query(expr string, t time.Time) (Result, error) {
	ast, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}
	v, err := evalExpr(e.db, t.UnixNano(), ast)
	if err != nil {
		return Result{}, err
	}
	switch v.kind {
	case ekScalar:
		return Result{Type: ResultScalar, Scalar: v.scalar}, nil
	case ekVector:
		if len(v.vector) == 0 {
			return Result{}, &EmptyResultError{Query: expr}
		}
		return Result{Type: ResultVector, Vector: v.vector}, nil
	default:
		return Result{}, &BadSelectorError{Query: expr, Reason: "a range vector is not a valid top-level query result; wrap it in a function"}
	}
}

// QueryRange evaluates expr once per step between start and end inclusive,
// stitching the per-step instant results into a Matrix.
func (e *Engine) QueryRange(expr string, start, end time.Time, step time.Duration) (Result, error) {
	if step <= 0 {
		return Result{}, &BadSelectorError{Query: expr, Reason: "step must be positive"}
	}
	ast, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}

	seriesByKey := make(map[string]*Series)
	var order []string

	for ts := start; !ts.After(end); ts = ts.Add(step) {
		v, err := evalExpr(e.db, ts.UnixNano(), ast)
		if err != nil {
			if _, ok := err.(*UnknownMetricError); ok {
				return Result{}, err
			}
			continue
		}
		switch v.kind {
		case ekScalar:
			key := ""
			s, ok := seriesByKey[key]
			if !ok {
				s = &Series{}
				seriesByKey[key] = s
				order = append(order, key)
			}
			s.Points = append(s.Points, pointAt(ts, v.scalar))
		case ekVector:
			for _, sample := range v.vector {
				key := sample.Labels.Key()
				s, ok := seriesByKey[key]
				if !ok {
					s = &Series{Labels: sample.Labels}
					seriesByKey[key] = s
					order = append(order, key)
				}
				s.Points = append(s.Points, pointAt(ts, sample.Value))
			}
		default:
			return Result{}, &BadSelectorError{Query: expr, Reason: "a range vector is not a valid top-level query result; wrap it in a function"}
		}
	}

	if len(order) == 0 {
		return Result{}, &EmptyResultError{Query: expr}
	}
	matrix := make(Matrix, 0, len(order))
	for _, key := range order {
		matrix = append(matrix, *seriesByKey[key])
	}
	return Result{Type: ResultMatrix, Matrix: matrix}, nil
}

package promql

import (
	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/rate"
)

// ResultType identifies the shape of a Result, mirroring the PromQL
// Scalar/Vector/Matrix distinction PromQL itself makes.
type ResultType int

const (
	ResultScalar ResultType = iota
	ResultVector
	ResultMatrix
)

func (t ResultType) String() string {
	switch t {
	case ResultScalar:
		return "scalar"
	case ResultVector:
		return "vector"
	case ResultMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Sample is one labeled value at a single timestamp, an element of a Vector.
type Sample struct {
	Labels metric.Labels
	Value  float64
}

// Vector is an instant query result: one value per matching series.
type Vector []Sample

// Series is one labeled sequence of points, an element of a Matrix.
type Series struct {
	Labels metric.Labels
	Points rate.FloatSeries
}

// Matrix is a range query result: one point sequence per matching series.
type Matrix []Series

// Result is the tagged-union outcome of evaluating a query.
type Result struct {
	Type   ResultType
	Scalar float64
	Vector Vector
	Matrix Matrix
}

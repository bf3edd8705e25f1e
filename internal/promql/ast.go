package promql

import "time"

// MatchOp is a label matcher operator.
type MatchOp int

const (
	MatchEqual MatchOp = iota
	MatchNotEqual
	MatchRegexp
	MatchNotRegexp
)

func (op MatchOp) String() string {
	switch op {
	case MatchEqual:
		return "="
	case MatchNotEqual:
		return "!="
	case MatchRegexp:
		return "=~"
	case MatchNotRegexp:
		return "!~"
	default:
		return "?"
	}
}

// Matcher constrains one label of a metric selector.
type Matcher struct {
	Label string
	Op    MatchOp
	Value string
}

// Expr is any node in a parsed PromQL-subset expression tree.
type Expr interface{ exprNode() }

// NumberLiteral is a bare scalar constant.
type NumberLiteral struct {
	Value float64
}

// VectorSelector names a metric, optionally filtered by label matchers and,
// when Range is nonzero, widened into a range (matrix) selector covering the
// trailing Range duration ending at the evaluation timestamp.
type VectorSelector struct {
	Name     string
	Matchers []Matcher
	Range    time.Duration
}

// AggrExpr applies an aggregation operator to its inner expression,
// optionally grouping by or excluding ("without") a set of label names.
type AggrExpr struct {
	Op       string // sum, avg, min, max, count, stddev
	Grouping []string
	Without  bool
	Expr     Expr
}

// CallExpr invokes one of the built-in functions over its arguments.
type CallExpr struct {
	Func string
	Args []Expr
}

// BinaryExpr applies an arithmetic or set operator between two operands.
type BinaryExpr struct {
	Op       string // +, -, *, /, %, and, or, unless
	LHS, RHS Expr
}

func (NumberLiteral) exprNode()  {}
func (VectorSelector) exprNode() {}
func (AggrExpr) exprNode()       {}
func (CallExpr) exprNode()       {}
func (BinaryExpr) exprNode()     {}

var aggrOps = map[string]bool{
	"sum": true, "avg": true, "min": true, "max": true, "count": true, "stddev": true,
}

var rangeFuncs = map[string]bool{
	"irate": true, "rate": true, "increase": true, "idelta": true, "delta": true,
	"sum_over_time": true, "avg_over_time": true, "min_over_time": true,
	"max_over_time": true, "count_over_time": true,
}

var instantFuncs = map[string]bool{
	"histogram_quantile": true,
}

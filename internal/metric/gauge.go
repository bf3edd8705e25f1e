package metric

import "sync/atomic"

// Gauge is a single signed integer that may move up or down freely.
type Gauge struct {
	value atomic.Int64
}

// Set overwrites the gauge value.
func (g *Gauge) Set(v int64) {
	g.value.Store(v)
}

// Add adds delta (positive or negative) to the gauge.
func (g *Gauge) Add(delta int64) {
	g.value.Add(delta)
}

// Value returns the current gauge value.
func (g *Gauge) Value() int64 {
	return g.value.Load()
}

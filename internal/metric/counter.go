package metric

import "sync/atomic"

// Counter is a single monotonic u64 value. It may wrap; callers performing
// rate derivation are responsible for wrap-aware delta computation (see
// internal/rate).
type Counter struct {
	value atomic.Uint64
}

// Add increments the counter by delta.
func (c *Counter) Add(delta uint64) {
	c.value.Add(delta)
}

// Set overwrites the counter value directly — used by the recording loader,
// never by samplers (samplers only increment what they observe).
func (c *Counter) Set(v uint64) {
	c.value.Store(v)
}

// Value returns the current counter value.
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

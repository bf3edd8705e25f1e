// Package metric implements the typed metric registry: counters, gauges,
// histograms, and per-index counter/gauge groups, each carrying a fixed set
// of metadata labels known at registration time.
package metric

import (
	"sort"
	"strings"
)

// Reserved label keys recognized by the query engine and exposition layer.
const (
	LabelName       = "__name__"
	LabelID         = "id"
	LabelCgroupName = "name"
	LabelState      = "state"
	LabelDirection  = "direction"
	LabelOp         = "op"
	LabelCPU        = "cpu"
	LabelNode       = "node"
	LabelPercentile = "percentile"
)

// Labels is an immutable, lexicographically ordered set of (key, value)
// pairs attached to a metric instance. The zero value is the empty set.
type Labels struct {
	pairs []Pair
}

// Pair is one label key/value.
type Pair struct {
	Key   string
	Value string
}

// NewLabels builds a Labels set from a map, sorting keys lexicographically.
func NewLabels(m map[string]string) Labels {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return Labels{pairs: pairs}
}

// NewLabelsFromPairs builds a Labels set from key1, value1, key2, value2, ...
func NewLabelsFromPairs(kv ...string) Labels {
	if len(kv)%2 != 0 {
		panic("metric: odd number of arguments to NewLabelsFromPairs")
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return NewLabels(m)
}

// Get returns the value for key and whether it was present.
func (l Labels) Get(key string) (string, bool) {
	for _, p := range l.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Len returns the number of label pairs.
func (l Labels) Len() int { return len(l.pairs) }

// Pairs returns the underlying ordered pairs. Callers must not mutate it.
func (l Labels) Pairs() []Pair { return l.pairs }

// Map returns a fresh map copy of the labels.
func (l Labels) Map() map[string]string {
	m := make(map[string]string, len(l.pairs))
	for _, p := range l.pairs {
		m[p.Key] = p.Value
	}
	return m
}

// Key returns a canonical string suitable for use as a map key, e.g.
// `id="3",state="user"`.
func (l Labels) Key() string {
	var b strings.Builder
	for i, p := range l.pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteByte('"')
		b.WriteString(p.Value)
		b.WriteByte('"')
	}
	return b.String()
}

// Equal reports whether two label sets contain exactly the same pairs.
func (l Labels) Equal(other Labels) bool {
	return l.Key() == other.Key()
}

// Without returns a copy of l with the given keys removed.
func (l Labels) Without(keys ...string) Labels {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := make([]Pair, 0, len(l.pairs))
	for _, p := range l.pairs {
		if !drop[p.Key] {
			out = append(out, p)
		}
	}
	return Labels{pairs: out}
}

// With returns a copy of l with only the given keys retained.
func (l Labels) With(keys ...string) Labels {
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}
	out := make([]Pair, 0, len(keys))
	for _, p := range l.pairs {
		if keep[p.Key] {
			out = append(out, p)
		}
	}
	return Labels{pairs: out}
}

// Matches reports whether l satisfies an equality-only filter: every
// (key, value) in filter must be present in l with the same value.
func (l Labels) Matches(filter map[string]string) bool {
	for k, v := range filter {
		got, ok := l.Get(k)
		if !ok || got != v {
			return false
		}
	}
	return true
}

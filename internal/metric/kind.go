package metric

// Kind identifies which of the four metric shapes a registered name holds.
type Kind int

const (
	// KindCounter is a single monotonic u64 that may wrap.
	KindCounter Kind = iota
	// KindGauge is a single signed integer, free to move up or down.
	KindGauge
	// KindHistogram is a logarithmic bucketed distribution.
	KindHistogram
	// KindCounterGroup is a fixed-capacity indexed array of counters.
	KindCounterGroup
	// KindGaugeGroup is a fixed-capacity indexed array of gauges.
	KindGaugeGroup
)

// String renders the kind the way it appears in exposition TYPE lines.
func (k Kind) String() string {
	switch k {
	case KindCounter, KindCounterGroup:
		return "counter"
	case KindGauge, KindGaugeGroup:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// IsGroup reports whether the kind is indexed (CounterGroup/GaugeGroup).
func (k Kind) IsGroup() bool {
	return k == KindCounterGroup || k == KindGaugeGroup
}

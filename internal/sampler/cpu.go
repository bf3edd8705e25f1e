package sampler

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

func init() {
	Register("cpu", newCPUSampler)
}

// cpuStates are the /proc/stat aggregate-CPU fields procfs.Stat already
// converts from jiffies to seconds. cpu_usage_seconds_total is a
// CounterGroup indexed by state (not one Counter per state, since a
// Registry name carries exactly one metadata map — a group is the model's
// way of representing several label-indexed series under one name) — the
// reference implementation proving the
// Sampler contract is sufficient without attempting an exhaustive port of
// every field a production rezolus carries.
var cpuStates = []string{"user", "nice", "system", "idle", "iowait", "irq", "softirq", "steal"}

type cpuSampler struct {
	fs    procfs.FS
	usage *metric.CounterGroup
}

func newCPUSampler(reg *metric.Registry) (Sampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("%w: open procfs: %v", ErrUnsupported, err)
	}
	if _, err := fs.Stat(); err != nil {
		return nil, fmt.Errorf("%w: read /proc/stat: %v", ErrUnsupported, err)
	}

	usage, err := reg.RegisterCounterGroup("cpu_usage_seconds_total", nil, len(cpuStates), metric.LabelState)
	if err != nil {
		return nil, err
	}
	for i, state := range cpuStates {
		usage.SetMetadata(i, metric.LabelState, state)
	}
	return &cpuSampler{fs: fs, usage: usage}, nil
}

func (s *cpuSampler) Name() string { return "cpu" }

func (s *cpuSampler) Refresh(ctx context.Context) error {
	stat, err := s.fs.Stat()
	if err != nil {
		return fmt.Errorf("cpu: read /proc/stat: %w", err)
	}
	cpu := stat.CPUTotal
	values := []float64{
		cpu.User, cpu.Nice, cpu.System, cpu.Idle,
		cpu.Iowait, cpu.IRQ, cpu.SoftIRQ, cpu.Steal,
	}
	for i, v := range values {
		if v < 0 {
			continue
		}
		// Stored as integer nanoseconds, matching the counter model's u64 domain.
		s.usage.Insert(i, uint64(v*1e9))
	}
	return nil
}

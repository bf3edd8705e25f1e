package sampler

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

func init() {
	Register("memory", newMemorySampler)
}

// vmstatCounters are the /proc/vmstat keys exposed as counters: every
// vmstat field is itself a monotonic, boot-lifetime counter, unlike
// /proc/meminfo's instantaneous gauges.
var vmstatCounters = []string{"pgfault", "pgmajfault", "pgpgin", "pgpgout", "pswpin", "pswpout"}

type memorySampler struct {
	fs       procfs.FS
	counters map[string]*metric.Counter
	free     *metric.Gauge
	avail    *metric.Gauge
	cached   *metric.Gauge
}

func newMemorySampler(reg *metric.Registry) (Sampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("%w: open procfs: %v", ErrUnsupported, err)
	}
	if _, err := fs.VMStat(); err != nil {
		return nil, fmt.Errorf("%w: read /proc/vmstat: %v", ErrUnsupported, err)
	}

	counters := make(map[string]*metric.Counter, len(vmstatCounters))
	for _, name := range vmstatCounters {
		c, err := reg.RegisterCounter("memory_"+name+"_total", nil)
		if err != nil {
			return nil, err
		}
		counters[name] = c
	}

	free, err := reg.RegisterGauge("memory_free_bytes", nil)
	if err != nil {
		return nil, err
	}
	avail, err := reg.RegisterGauge("memory_available_bytes", nil)
	if err != nil {
		return nil, err
	}
	cached, err := reg.RegisterGauge("memory_cached_bytes", nil)
	if err != nil {
		return nil, err
	}

	return &memorySampler{fs: fs, counters: counters, free: free, avail: avail, cached: cached}, nil
}

func (s *memorySampler) Name() string { return "memory" }

func (s *memorySampler) Refresh(ctx context.Context) error {
	vmstat, err := s.fs.VMStat()
	if err != nil {
		return fmt.Errorf("memory: read /proc/vmstat: %w", err)
	}
	for name, c := range s.counters {
		if v, ok := vmstat[name]; ok {
			c.Set(v)
		}
	}

	meminfo, err := s.fs.Meminfo()
	if err != nil {
		return fmt.Errorf("memory: read /proc/meminfo: %w", err)
	}
	setKB := func(g *metric.Gauge, v *uint64) {
		if v != nil {
			g.Set(int64(*v) * 1024)
		}
	}
	setKB(s.free, meminfo.MemFree)
	setKB(s.avail, meminfo.MemAvailable)
	setKB(s.cached, meminfo.Cached)
	return nil
}

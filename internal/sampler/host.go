package sampler

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

func init() {
	Register("host", newHostSampler)
}

// hostSampler records whole-host facts gopsutil already normalizes across
// platforms, standing in for rezolus's "system" sampler group: uptime and
// running-process count as gauges, since both can legitimately decrease
// (a reboot, or processes exiting).
type hostSampler struct {
	uptime *metric.Gauge
	procs  *metric.Gauge
}

func newHostSampler(reg *metric.Registry) (Sampler, error) {
	if _, err := host.Info(); err != nil {
		return nil, fmt.Errorf("%w: read host info: %v", ErrUnsupported, err)
	}

	uptime, err := reg.RegisterGauge("host_uptime_seconds", nil)
	if err != nil {
		return nil, err
	}
	procs, err := reg.RegisterGauge("host_processes", nil)
	if err != nil {
		return nil, err
	}
	return &hostSampler{uptime: uptime, procs: procs}, nil
}

func (s *hostSampler) Name() string { return "host" }

func (s *hostSampler) Refresh(ctx context.Context) error {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return fmt.Errorf("host: read host info: %w", err)
	}
	s.uptime.Set(int64(info.Uptime))
	s.procs.Set(int64(info.Procs))
	return nil
}

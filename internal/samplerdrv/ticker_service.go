package samplerdrv

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rezolus-go/internal/sampler"
	"github.com/tomtom215/rezolus-go/internal/selfmetrics"
)

// tickerService is a suture.Service that calls one Sampler's Refresh on a
// fixed interval, routing every outcome through a gobreaker circuit
// breaker and a shared sampler.StatusTracker. Suture restarts the service
// itself on panic/early-return per the supervisor tree's failure policy;
// the breaker additionally protects against a sampler whose Refresh
// succeeds (returns) but degrades a failing data source on every tick,
// which a supervisor restart alone would not slow down.
type tickerService struct {
	sampler  sampler.Sampler
	interval time.Duration
	status   *sampler.StatusTracker
	logger   *slog.Logger
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// Serve implements suture.Service.
func (s *tickerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *tickerService) tick(ctx context.Context) {
	name := s.sampler.Name()
	start := time.Now()
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.sampler.Refresh(ctx)
	})
	selfmetrics.SamplerRefreshDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		selfmetrics.SamplerRefreshErrors.WithLabelValues(name).Inc()
		degraded := s.status.ReportFailure(name, err)
		if degraded {
			selfmetrics.SamplerDegraded.WithLabelValues(name).Set(1)
			s.logger.Warn("sampler degraded", "error", err, "breaker_state", s.breaker.State().String())
		} else {
			s.logger.Debug("sampler refresh failed", "error", err)
		}
		return
	}
	selfmetrics.SamplerDegraded.WithLabelValues(name).Set(0)
	s.status.ReportSuccess(name)
}

// String names the service for suture's logs.
func (s *tickerService) String() string { return "sampler:" + s.sampler.Name() }

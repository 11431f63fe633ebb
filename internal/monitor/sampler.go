package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/internal/config"
	"github.com/fitcoach/perfmon/model"
	"go.uber.org/zap"
)

// HostSource reads one snapshot of host and process resources.
type HostSource interface {
	Collect(ctx context.Context) (model.SystemSnapshot, error)
}

// Sampler turns host snapshots into metrics and threshold alerts.
type Sampler struct {
	source     HostSource
	record     func(model.PerformanceMetric)
	alerts     *AlertManager
	thresholds config.Thresholds
	onSample   func(model.SystemSnapshot)
	logger     *zap.SugaredLogger

	mu     sync.RWMutex
	latest *model.SystemSnapshot
}

func NewSampler(source HostSource, record func(model.PerformanceMetric), alerts *AlertManager,
	thresholds config.Thresholds, logger *zap.SugaredLogger) *Sampler {
	return &Sampler{
		source:     source,
		record:     record,
		alerts:     alerts,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Sample collects one snapshot, records cpu, memory and disk usage and
// raises a warning for each resource over its threshold.
func (s *Sampler) Sample(ctx context.Context) (model.SystemSnapshot, error) {
	snap, err := s.source.Collect(ctx)
	if err != nil {
		s.logger.Errorw("system sampling failed", "error", err)
		return model.SystemSnapshot{}, fmt.Errorf("collect system metrics: %w", err)
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	s.mu.Lock()
	latest := snap
	s.latest = &latest
	s.mu.Unlock()

	if s.onSample != nil {
		s.onSample(snap)
	}

	th := s.thresholds
	usage := []struct {
		kind  model.MetricKind
		value float64
		limit float64
	}{
		{model.CPUUsage, snap.CPUUsage, th.CPUUsage},
		{model.MemoryUsage, snap.MemoryUsage, th.MemoryUsage},
		{model.DiskUsage, snap.DiskUsage, th.DiskUsage},
	}
	for _, u := range usage {
		if s.record != nil {
			s.record(model.PerformanceMetric{
				Name:      string(u.kind),
				Kind:      u.kind,
				Value:     u.value,
				Timestamp: snap.Timestamp,
			})
		}
		if u.value > u.limit {
			s.raise(u.kind, u.value, u.limit)
		}
	}
	return snap, nil
}

var usageTitles = map[model.MetricKind]string{
	model.CPUUsage:    "High CPU Usage",
	model.MemoryUsage: "High Memory Usage",
	model.DiskUsage:   "High Disk Usage",
}

var usageNames = map[model.MetricKind]string{
	model.CPUUsage:    "Cpu Usage",
	model.MemoryUsage: "Memory Usage",
	model.DiskUsage:   "Disk Usage",
}

func (s *Sampler) raise(kind model.MetricKind, value, limit float64) {
	s.alerts.Raise(model.Warning,
		usageTitles[kind],
		fmt.Sprintf("%s is %.1f%% (threshold: %g%%)", usageNames[kind], value, limit),
		map[string]any{"metric": string(kind), "value": value, "threshold": limit},
	)
}

// Latest returns the most recent successful snapshot, if any.
func (s *Sampler) Latest() (model.SystemSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return model.SystemSnapshot{}, false
	}
	return *s.latest, true
}

// Loop samples once per interval until ctx is cancelled. Failed ticks are
// logged by Sample and skipped.
func (s *Sampler) Loop(ctx context.Context, interval time.Duration) {
	every(ctx, interval, func(ctx context.Context) {
		_, _ = s.Sample(ctx)
	})
}

// every calls fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

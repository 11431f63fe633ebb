package monitor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/internal/errs"
	"github.com/fitcoach/perfmon/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProbeResult is what a probe reports about its dependency.
type ProbeResult struct {
	Healthy  bool
	Degraded bool
	Details  map[string]any
}

// Probe checks the health of one external dependency. Check may block; it
// should honour ctx.
type Probe interface {
	Check(ctx context.Context) (ProbeResult, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) (ProbeResult, error)

func (f ProbeFunc) Check(ctx context.Context) (ProbeResult, error) { return f(ctx) }

// HealthRegistry runs named probes. Unhealthy and failed runs raise an
// error-level alert.
type HealthRegistry struct {
	mu      sync.RWMutex
	probes  map[string]Probe
	alerts  *AlertManager
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewHealthRegistry(alerts *AlertManager, timeout time.Duration, logger *zap.SugaredLogger) *HealthRegistry {
	return &HealthRegistry{
		probes:  make(map[string]Probe),
		alerts:  alerts,
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds or replaces the probe for name.
func (h *HealthRegistry) Register(name string, p Probe) {
	h.mu.Lock()
	h.probes[name] = p
	h.mu.Unlock()

	h.logger.Infow("health check added", "service", name)
}

// Names returns registered check names in sorted order.
func (h *HealthRegistry) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.probes))
	for n := range h.probes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Run executes the named probe once. An unregistered name yields status
// unknown with zero latency and raises nothing.
func (h *HealthRegistry) Run(ctx context.Context, name string) model.HealthCheckResult {
	h.mu.RLock()
	p, ok := h.probes[name]
	h.mu.RUnlock()

	if !ok {
		return model.HealthCheckResult{
			ServiceName: name,
			Status:      model.Unknown,
			Timestamp:   time.Now(),
			Details:     map[string]any{"error": "Health check not found"},
		}
	}

	start := time.Now()
	res, err := h.invoke(ctx, p)
	elapsed := time.Since(start)

	result := model.HealthCheckResult{
		ServiceName:  name,
		ResponseTime: elapsed.Seconds(),
		Timestamp:    time.Now(),
	}
	switch {
	case err != nil:
		result.Status = model.Error
		result.Details = map[string]any{"error": err.Error()}
		h.logger.Errorw("health check failed", "service", name, "error", err)
	default:
		result.Details = maps.Clone(res.Details)
		if result.Details == nil {
			result.Details = map[string]any{}
		}
		result.Details["healthy"] = res.Healthy
		switch {
		case !res.Healthy:
			result.Status = model.Unhealthy
		case res.Degraded:
			result.Status = model.Degraded
		default:
			result.Status = model.Healthy
		}
	}

	if (result.Status == model.Unhealthy || result.Status == model.Error) && ctx.Err() == nil {
		h.alerts.Raise(model.ErrorLvl,
			"Service Unhealthy: "+name,
			fmt.Sprintf("Health check failed for %s (status: %s)", name, result.Status),
			map[string]any{"service": name, "status": string(result.Status), "details": result.Details},
		)
	}
	return result
}

// invoke calls p under the per-probe timeout, converting panics and
// deadline overruns into errors.
func (h *HealthRegistry) invoke(ctx context.Context, p Probe) (ProbeResult, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	type outcome struct {
		res ProbeResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", errs.ErrProbePanic, r)}
			}
		}()
		res, err := p.Check(ctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProbeResult{}, fmt.Errorf("%w after %s", errs.ErrProbeTimeout, h.timeout)
		}
		return ProbeResult{}, ctx.Err()
	}
}

// RunAll runs every registered probe concurrently. A slow or failing probe
// does not hold back the others beyond its own timeout.
func (h *HealthRegistry) RunAll(ctx context.Context) map[string]model.HealthCheckResult {
	names := h.Names()
	results := make(map[string]model.HealthCheckResult, len(names))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, name := range names {
		g.Go(func() error {
			res := h.Run(ctx, name)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (h *HealthRegistry) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.probes)
}

// Loop runs every probe once per interval until ctx is cancelled.
func (h *HealthRegistry) Loop(ctx context.Context, interval time.Duration) {
	every(ctx, interval, func(ctx context.Context) {
		results := h.RunAll(ctx)
		h.logger.Debugw("health cycle finished", "checks", len(results))
	})
}

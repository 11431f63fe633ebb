// Package monitor is the monitoring core: metric, error and alert stores,
// health checks, system sampling and request tracking behind one facade.
package monitor

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/internal/collector"
	"github.com/fitcoach/perfmon/internal/config"
	"github.com/fitcoach/perfmon/internal/errs"
	"github.com/fitcoach/perfmon/internal/telemetry"
	"github.com/fitcoach/perfmon/model"
	"github.com/fitcoach/perfmon/storage"
	"github.com/fitcoach/perfmon/storage/inmemory"
	"go.uber.org/zap"
)

// ErrorRateWindow is how far back the error-rate check looks.
const ErrorRateWindow = 10 * time.Minute

// criticalErrorTypes escalate straight to a critical alert.
var criticalErrorTypes = map[string]bool{
	"database_error": true,
	"payment_error":  true,
	"auth_error":     true,
}

// AnalyticsRecorder receives errors tied to a user. Delivery is fire and
// forget.
type AnalyticsRecorder interface {
	RecordError(ctx context.Context, userID, errType, message string, details map[string]any) error
}

// Options carries the optional collaborators of a Monitor. Zero values
// disable the matching side effect, except Source which defaults to
// gopsutil.
type Options struct {
	Storage   storage.Storage
	Notifier  Notifier
	Analytics AnalyticsRecorder
	Source    HostSource
	Metrics   *telemetry.Metrics
}

type Monitor struct {
	cfg    *config.ServerConfig
	logger *zap.SugaredLogger

	metrics  *inmemory.MetricStore
	errors   *ErrorRegistry
	alerts   *AlertManager
	health   *HealthRegistry
	sampler  *Sampler
	requests *RequestTracker

	source    HostSource
	store     storage.Storage
	analytics AnalyticsRecorder
	telemetry *telemetry.Metrics
	persist   *persister

	mu      sync.Mutex
	cancel  context.CancelFunc
	loops   sync.WaitGroup
	bg      sync.WaitGroup
	started time.Time
}

// New wires the components. No goroutine is started until Start.
func New(cfg *config.ServerConfig, opts Options) *Monitor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	m := &Monitor{
		cfg:       cfg,
		logger:    logger,
		metrics:   inmemory.NewMetricStore(cfg.MetricCapacity),
		errors:    NewErrorRegistry(),
		source:    opts.Source,
		store:     opts.Storage,
		analytics: opts.Analytics,
		telemetry: opts.Metrics,
	}
	if m.source == nil {
		m.source = collector.NewGopsutil(cfg.DiskPath)
	}
	if m.store != nil {
		m.persist = newPersister(m.store, cfg.MetricCapacity, logger)
	}

	m.alerts = NewAlertManager(logger, opts.Notifier)
	m.alerts.onRaise = m.telemetry.IncAlert
	m.alerts.onChange = m.alertChanged

	m.health = NewHealthRegistry(m.alerts, cfg.ProbeTimeout, logger)
	m.sampler = NewSampler(m.source, m.recordMetric, m.alerts, cfg.Thresholds, logger)
	m.sampler.onSample = m.telemetry.SetSystem
	m.requests = NewRequestTracker(cfg.RequestWindow, cfg.EndpointWindow,
		cfg.Thresholds.ResponseTime, m.recordMetric, m.alerts)
	return m
}

func (m *Monitor) recordMetric(pm model.PerformanceMetric) {
	m.metrics.Record(pm)
	m.persist.enqueue(persistJob{
		kind: "metric",
		id:   pm.Name,
		save: func(ctx context.Context, s storage.Storage) error { return s.SaveMetric(ctx, pm) },
	})
}

func (m *Monitor) alertChanged(a model.SystemAlert) {
	_, active := m.alerts.Counts()
	m.telemetry.SetActiveAlerts(active)
	m.persist.enqueue(persistJob{
		kind: "alert",
		id:   a.ID,
		save: func(ctx context.Context, s storage.Storage) error { return s.SaveAlert(ctx, a) },
	})
}

// Start restores the metric snapshot when configured and launches the
// background loops. Loops with a non-positive interval are not started.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return errs.ErrAlreadyStarted
	}

	if m.cfg.Restore && m.cfg.FileStoragePath != "" {
		n, err := m.metrics.LoadFromFile(ctx, m.cfg.FileStoragePath)
		if err != nil {
			m.logger.Errorw("failed to restore metrics", "path", m.cfg.FileStoragePath, "error", err)
		} else if n > 0 {
			m.logger.Infow("metrics restored", "path", m.cfg.FileStoragePath, "count", n)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.started = time.Now()

	m.launch(ctx, m.cfg.SampleInterval, m.sampler.Loop)
	m.launch(ctx, m.cfg.HealthInterval, m.health.Loop)
	if m.cfg.FileStoragePath != "" {
		m.launch(ctx, m.cfg.StoreInterval, m.snapshotLoop)
	}
	if m.persist != nil {
		m.persist.setClosed(false)
		m.loops.Add(1)
		go func() {
			defer m.loops.Done()
			m.persist.run(ctx)
		}()
	}

	m.logger.Infow("monitoring started",
		"sample_interval", m.cfg.SampleInterval,
		"health_interval", m.cfg.HealthInterval,
	)
	return nil
}

func (m *Monitor) launch(ctx context.Context, interval time.Duration, loop func(context.Context, time.Duration)) {
	if interval <= 0 {
		return
	}
	m.loops.Add(1)
	go func() {
		defer m.loops.Done()
		loop(ctx, interval)
	}()
}

func (m *Monitor) snapshotLoop(ctx context.Context, interval time.Duration) {
	every(ctx, interval, func(ctx context.Context) {
		if err := m.metrics.SaveToFile(ctx, m.cfg.FileStoragePath); err != nil {
			m.logger.Errorw("failed to save metrics snapshot", "error", err)
		}
	})
}

// Stop cancels the loops and waits for them, for in-flight notifications
// and analytics forwards. The metric snapshot is written one last time.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.loops.Wait()
	m.alerts.Wait()
	m.bg.Wait()
	// nothing drains the queue until the next Start
	m.persist.setClosed(true)

	if m.cfg.FileStoragePath != "" {
		if err := m.metrics.SaveToFile(context.Background(), m.cfg.FileStoragePath); err != nil {
			m.logger.Errorw("failed to save metrics snapshot", "error", err)
		}
	}
	m.logger.Info("monitoring stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// TrackRequest records one API call.
func (m *Monitor) TrackRequest(method, endpoint string, d time.Duration, status int) {
	m.requests.Track(method, endpoint, d.Seconds(), status)
	m.telemetry.ObserveRequest(method, endpoint, status, d.Seconds())
}

// TrackError records an application error and returns its id. Errors with
// a user id are forwarded to analytics; critical types raise a critical
// alert.
func (m *Monitor) TrackError(ctx context.Context, errType, message, userID string, details map[string]any) string {
	ev := m.errors.Record(errType, message, userID, details)
	m.logger.Errorw("error tracked", "error_id", ev.ID, "error_type", errType, "message", message)
	m.telemetry.IncError(errType)
	m.persistError(ev)

	if userID != "" && m.analytics != nil {
		m.forwardAnalytics(ctx, ev)
	}

	m.checkErrorRate(ev.Timestamp)

	if criticalErrorTypes[errType] {
		m.alerts.Raise(model.Critical,
			"Critical Error: "+errType,
			message,
			map[string]any{"error_id": ev.ID, "error_type": errType},
		)
	}
	return ev.ID
}

func (m *Monitor) persistError(ev model.ErrorEvent) {
	m.persist.enqueue(persistJob{
		kind: "error",
		id:   ev.ID,
		save: func(ctx context.Context, s storage.Storage) error { return s.SaveError(ctx, ev) },
	})
}

func (m *Monitor) forwardAnalytics(ctx context.Context, ev model.ErrorEvent) {
	ctx = context.WithoutCancel(ctx)
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := m.analytics.RecordError(ctx, ev.UserID, ev.Type, ev.Message, ev.Context); err != nil {
			m.logger.Warnw("failed to forward error to analytics", "error_id", ev.ID, "error", err)
		}
	}()
}

// checkErrorRate compares errors against requests over ErrorRateWindow,
// aligned to whole seconds on both sides. Nothing is evaluated while no
// requests were tracked in the window.
func (m *Monitor) checkErrorRate(now time.Time) {
	since := now.Add(-ErrorRateWindow).Truncate(time.Second)
	requests := m.requests.CountSince(since)
	if requests == 0 {
		return
	}
	errorsN := m.errors.CountSince(since)
	rate := float64(errorsN) / float64(requests) * 100

	m.recordMetric(model.PerformanceMetric{
		Name:      string(model.ErrorRate),
		Kind:      model.ErrorRate,
		Value:     rate,
		Timestamp: now,
	})

	limit := m.cfg.Thresholds.ErrorRate
	if rate > limit {
		m.alerts.Raise(model.ErrorLvl,
			"High Error Rate",
			fmt.Sprintf("Error rate is %.1f%% over the last %s (threshold: %g%%)", rate, ErrorRateWindow, limit),
			map[string]any{"errors": errorsN, "requests": requests, "error_rate": rate},
		)
	}
}

func (m *Monitor) RegisterHealthCheck(name string, p Probe) {
	m.health.Register(name, p)
}

func (m *Monitor) RunHealthCheck(ctx context.Context, name string) model.HealthCheckResult {
	return m.health.Run(ctx, name)
}

func (m *Monitor) RunAllHealthChecks(ctx context.Context) map[string]model.HealthCheckResult {
	return m.health.RunAll(ctx)
}

// SystemSnapshot reads the host resources now. It records nothing and
// raises nothing.
func (m *Monitor) SystemSnapshot(ctx context.Context) (model.SystemSnapshot, error) {
	snap, err := m.source.Collect(ctx)
	if err != nil {
		return model.SystemSnapshot{}, fmt.Errorf("collect system metrics: %w", err)
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	return snap, nil
}

// Sample runs one sampling tick outside the loop.
func (m *Monitor) Sample(ctx context.Context) (model.SystemSnapshot, error) {
	return m.sampler.Sample(ctx)
}

// Summary aggregates the stores over the last window. The current system
// figures come from the latest sampling tick.
func (m *Monitor) Summary(window time.Duration) model.Summary {
	now := time.Now()
	since := now.Add(-window)

	s := model.Summary{
		PeriodHours: window.Hours(),
		ErrorTypes:  map[string]int{},
		GeneratedAt: now,
	}

	rt := m.metrics.Query(since, model.ResponseTime)
	s.TotalRequests = len(rt)
	if len(rt) > 0 {
		s.MinResponseTime = math.Inf(1)
		var sum float64
		for _, pm := range rt {
			sum += pm.Value
			s.MinResponseTime = min(s.MinResponseTime, pm.Value)
			s.MaxResponseTime = max(s.MaxResponseTime, pm.Value)
		}
		s.AverageResponseTime = sum / float64(len(rt))
	}

	s.AverageCPUUsage = average(m.metrics.Query(since, model.CPUUsage))
	s.AverageMemoryUsage = average(m.metrics.Query(since, model.MemoryUsage))

	events := m.errors.Query(since, "")
	s.TotalErrors = len(events)
	for _, ev := range events {
		s.ErrorTypes[ev.Type]++
	}

	if snap, ok := m.sampler.Latest(); ok {
		s.CurrentSystem = &snap
	}
	return s
}

func average(ms []model.PerformanceMetric) float64 {
	if len(ms) == 0 {
		return 0
	}
	var sum float64
	for _, pm := range ms {
		sum += pm.Value
	}
	return sum / float64(len(ms))
}

func (m *Monitor) ListAlerts(f AlertFilter) []model.SystemAlert {
	return m.alerts.List(f)
}

func (m *Monitor) ResolveAlert(id string) bool {
	return m.alerts.Resolve(id)
}

// Errors returns events since the given instant, newest first. A
// non-positive limit returns everything.
func (m *Monitor) Errors(since time.Time, errType string, limit int) []model.ErrorEvent {
	events := m.errors.Query(since, errType)
	slices.Reverse(events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

func (m *Monitor) ResolveError(id string) bool {
	if !m.errors.Resolve(id) {
		return false
	}
	if ev, ok := m.errors.Get(id); ok {
		m.persistError(ev)
	}
	return true
}

func (m *Monitor) EndpointStats(filter string) map[string]model.EndpointStats {
	return m.requests.EndpointStats(filter)
}

func (m *Monitor) Throughput() float64 {
	return m.requests.Throughput()
}

// Metrics returns samples recorded at or after since. An empty kind matches
// every sample.
func (m *Monitor) Metrics(since time.Time, kind model.MetricKind) []model.PerformanceMetric {
	return m.metrics.Query(since, kind)
}

// RecordMetric stores a custom sample.
func (m *Monitor) RecordMetric(pm model.PerformanceMetric) {
	if pm.Timestamp.IsZero() {
		pm.Timestamp = time.Now()
	}
	m.recordMetric(pm)
}

// ClearMetrics drops buffered samples and request windows. Errors and
// alerts are kept. It returns how many samples were dropped.
func (m *Monitor) ClearMetrics() int {
	n := m.metrics.Clear()
	m.requests.Reset()
	m.telemetry.Reset()
	m.logger.Warnw("metrics buffer cleared", "dropped", n)
	return n
}

// Ping checks the storage collaborator; without one it always succeeds.
func (m *Monitor) Ping(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.Ping(ctx)
}

func (m *Monitor) Telemetry() *telemetry.Metrics {
	return m.telemetry
}

// Stats describes the state of the monitor itself.
type Stats struct {
	MetricsBufferSize int               `json:"metrics_buffer_size"`
	MetricsCapacity   int               `json:"metrics_capacity"`
	RecentRequests    int               `json:"recent_requests"`
	TotalErrors       int               `json:"total_errors"`
	ErrorTypes        map[string]int64  `json:"error_types"`
	TotalAlerts       int               `json:"total_alerts"`
	ActiveAlerts      int               `json:"active_alerts"`
	HealthChecks      []string          `json:"health_checks"`
	PendingWrites     int               `json:"pending_writes"`
	SampleInterval    string            `json:"sample_interval"`
	HealthInterval    string            `json:"health_interval"`
	Thresholds        config.Thresholds `json:"thresholds"`
	Running           bool              `json:"running"`
	Uptime            string            `json:"uptime,omitempty"`
}

func (m *Monitor) Stats() Stats {
	total, active := m.alerts.Counts()
	st := Stats{
		MetricsBufferSize: m.metrics.Len(),
		MetricsCapacity:   m.metrics.Cap(),
		RecentRequests:    m.requests.Len(),
		TotalErrors:       m.errors.Len(),
		ErrorTypes:        m.errors.Counts(),
		TotalAlerts:       total,
		ActiveAlerts:      active,
		HealthChecks:      m.health.Names(),
		PendingWrites:     m.persist.pending(),
		SampleInterval:    m.cfg.SampleInterval.String(),
		HealthInterval:    m.cfg.HealthInterval.String(),
		Thresholds:        m.cfg.Thresholds,
	}

	m.mu.Lock()
	if m.cancel != nil {
		st.Running = true
		st.Uptime = time.Since(m.started).Truncate(time.Second).String()
	}
	m.mu.Unlock()
	return st
}

// CriticalAlerts counts unresolved critical alerts.
func (m *Monitor) CriticalAlerts() int {
	f := false
	return len(m.alerts.List(AlertFilter{Resolved: &f, Level: model.Critical}))
}

// TopErrorTypes returns error types ordered by count, largest first.
func (m *Monitor) TopErrorTypes(n int) []string {
	counts := m.errors.Counts()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if n > 0 && len(types) > n {
		types = types[:n]
	}
	return types
}

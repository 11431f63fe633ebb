// Package telemetry exports monitoring counters and gauges in Prometheus
// format. All methods are safe on a nil *Metrics.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/fitcoach/perfmon/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perfmon"

type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	activeAlerts prometheus.Gauge
	cpu          prometheus.Gauge
	memory       prometheus.Gauge
	disk         prometheus.Gauge
}

// New builds a private registry with process and Go runtime collectors
// plus the monitoring series.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Tracked API requests.",
		}, []string{"method", "endpoint", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Tracked API request latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "endpoint"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Tracked application errors by type.",
		}, []string{"error_type"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Raised alerts by level.",
		}, []string{"level"}),
		activeAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_alerts",
			Help:      "Unresolved alerts.",
		}),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_cpu_usage_percent",
			Help:      "Host CPU usage.",
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_memory_usage_percent",
			Help:      "Host memory usage.",
		}),
		disk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_disk_usage_percent",
			Help:      "Disk usage of the monitored path.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.errors, m.alerts, m.activeAlerts,
		m.cpu, m.memory, m.disk,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, endpoint).Observe(seconds)
}

func (m *Metrics) IncError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}

func (m *Metrics) IncAlert(level model.AlertLevel) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(string(level)).Inc()
}

func (m *Metrics) SetActiveAlerts(n int) {
	if m == nil {
		return
	}
	m.activeAlerts.Set(float64(n))
}

// SetSystem publishes the resource gauges of one sampling tick.
func (m *Metrics) SetSystem(s model.SystemSnapshot) {
	if m == nil {
		return
	}
	m.cpu.Set(s.CPUUsage)
	m.memory.Set(s.MemoryUsage)
	m.disk.Set(s.DiskUsage)
}

// Reset zeroes request and error series.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.requests.Reset()
	m.latency.Reset()
	m.errors.Reset()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in text exposition format. Compression is
// left to the router middleware.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{DisableCompression: true})
}

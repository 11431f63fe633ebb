package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitcoach/perfmon/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/health", 200, 0.2)
	m.ObserveRequest("GET", "/api/health", 200, 0.3)
	m.IncError("database_error")
	m.IncAlert(model.Critical)
	m.SetActiveAlerts(3)
	m.SetSystem(model.SystemSnapshot{CPUUsage: 42, MemoryUsage: 50, DiskUsage: 60})

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/health", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("database_error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.alerts.WithLabelValues("critical")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.activeAlerts))
	require.Equal(t, 42.0, testutil.ToFloat64(m.cpu))
	require.Equal(t, 60.0, testutil.ToFloat64(m.disk))

	m.Reset()
	require.Equal(t, 0, testutil.CollectAndCount(m.requests))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, 1)
		m.IncError("x")
		m.IncAlert(model.Info)
		m.SetActiveAlerts(1)
		m.SetSystem(model.SystemSnapshot{})
		m.Reset()
	})
	require.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncError("auth_error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `perfmon_errors_total{error_type="auth_error"} 1`)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

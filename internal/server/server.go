// Package server exposes the monitor over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fitcoach/perfmon/internal/config"
	"github.com/fitcoach/perfmon/internal/monitor"
	"github.com/fitcoach/perfmon/internal/server/middleware"
	"github.com/fitcoach/perfmon/internal/telemetry"
	"github.com/fitcoach/perfmon/model"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Monitor is what the HTTP layer needs from the monitoring core.
type Monitor interface {
	TrackRequest(method, endpoint string, d time.Duration, status int)
	TrackError(ctx context.Context, errType, message, userID string, details map[string]any) string
	SystemSnapshot(ctx context.Context) (model.SystemSnapshot, error)
	Summary(window time.Duration) model.Summary
	EndpointStats(filter string) map[string]model.EndpointStats
	Errors(since time.Time, errType string, limit int) []model.ErrorEvent
	ListAlerts(f monitor.AlertFilter) []model.SystemAlert
	ResolveAlert(id string) bool
	CriticalAlerts() int
	RunHealthCheck(ctx context.Context, name string) model.HealthCheckResult
	RunAllHealthChecks(ctx context.Context) map[string]model.HealthCheckResult
	Throughput() float64
	ClearMetrics() int
	Stats() monitor.Stats
	Ping(ctx context.Context) error
	Telemetry() *telemetry.Metrics
}

type Server struct {
	monitor Monitor
	config  *config.ServerConfig
}

func NewServer(m Monitor, cfg *config.ServerConfig) *Server {
	return &Server{monitor: m, config: cfg}
}

// Router builds the full route tree.
func (srv *Server) Router() (http.Handler, error) {
	trusted, err := middleware.TrustedCIDR(srv.config.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.config.Logger))
	router.Use(middleware.TrackRequests(srv.monitor))
	router.Use(middleware.VerifyHashMiddleware(srv.config.Key))
	router.Use(middleware.DecompressMiddleware)
	router.Use(middleware.CompressMiddleware)

	router.Get("/ping", srv.PingHandler)

	router.Route("/api/monitoring", func(r chi.Router) {
		r.Get("/metrics/system", srv.SystemMetricsHandler)
		r.Get("/metrics/performance", srv.PerformanceHandler)
		r.Get("/metrics/api", srv.APIMetricsHandler)

		r.Post("/errors/report", srv.ReportErrorHandler)
		r.Get("/errors", srv.ListErrorsHandler)

		r.Get("/alerts", srv.ListAlertsHandler)
		r.Post("/alerts/resolve", srv.ResolveAlertHandler)

		r.Get("/prometheus", srv.monitor.Telemetry().Handler().ServeHTTP)
		r.Get("/dashboard/realtime", srv.DashboardHandler)

		r.Group(func(r chi.Router) {
			r.Use(trusted)
			r.Post("/admin/clear-metrics", srv.ClearMetricsHandler)
			r.Get("/admin/stats", srv.StatsHandler)
		})
	})

	router.Route("/api/health", func(r chi.Router) {
		r.Get("/", srv.HealthHandler)
		r.Get("/{service}", srv.ServiceHealthHandler)
	})

	return router, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	router, err := srv.Router()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              srv.config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.config.Logger.Infow("http server listening", "addr", srv.config.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

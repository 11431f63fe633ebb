package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fitcoach/perfmon/internal/buildinfo"
	"github.com/fitcoach/perfmon/internal/monitor"
	"github.com/fitcoach/perfmon/model"
	"github.com/go-chi/chi/v5"
)

func (srv *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.config.Logger.Errorw("failed to write response JSON", "error", err)
	}
}

func (srv *Server) writeError(w http.ResponseWriter, code int, msg string) {
	srv.writeJSON(w, code, map[string]string{"detail": msg})
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.monitor.Ping(r.Context()); err != nil {
		srv.config.Logger.Errorw("storage ping failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (srv *Server) SystemMetricsHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := srv.monitor.SystemSnapshot(r.Context())
	if err != nil {
		srv.config.Logger.Errorw("system metrics query failed", "error", err)
		srv.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	srv.writeJSON(w, http.StatusOK, map[string]any{
		"system_metrics": snap,
		"timestamp":      time.Now(),
	})
}

func (srv *Server) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	hours, ok := queryInt(r, "hours", 24)
	if !ok {
		srv.writeError(w, http.StatusBadRequest, "hours must be a positive integer")
		return
	}
	srv.writeJSON(w, http.StatusOK, map[string]any{
		"performance_summary": srv.monitor.Summary(time.Duration(hours) * time.Hour),
		"query_hours":         hours,
		"generated_at":        time.Now(),
	})
}

func (srv *Server) APIMetricsHandler(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("endpoint")
	srv.writeJSON(w, http.StatusOK, map[string]any{
		"api_metrics":     srv.monitor.EndpointStats(filter),
		"endpoint_filter": filter,
		"generated_at":    time.Now(),
	})
}

type errorReport struct {
	ErrorType    string         `json:"error_type"`
	ErrorMessage string         `json:"error_message"`
	Context      map[string]any `json:"context"`
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (srv *Server) ReportErrorHandler(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	var report errorReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		srv.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if report.ErrorType == "" || report.ErrorMessage == "" {
		srv.writeError(w, http.StatusBadRequest, "error_type and error_message are required")
		return
	}

	details := report.Context
	if details == nil {
		details = map[string]any{}
	}
	details["user_agent"] = r.UserAgent()
	details["ip_address"] = clientIP(r)
	details["endpoint"] = r.URL.String()

	id := srv.monitor.TrackError(r.Context(), report.ErrorType, report.ErrorMessage, r.Header.Get("X-User-ID"), details)
	srv.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"error_id": id,
		"message":  "Error reported successfully",
	})
}

type errorView struct {
	ID        string    `json:"error_id"`
	Type      string    `json:"error_type"`
	Message   string    `json:"error_message"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Resolved  bool      `json:"resolved"`
}

func (srv *Server) ListErrorsHandler(w http.ResponseWriter, r *http.Request) {
	hours, ok := queryInt(r, "hours", 24)
	if !ok {
		srv.writeError(w, http.StatusBadRequest, "hours must be a positive integer")
		return
	}
	limit, ok := queryInt(r, "limit", 100)
	if !ok {
		srv.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	errType := r.URL.Query().Get("error_type")

	events := srv.monitor.Errors(time.Now().Add(-time.Duration(hours)*time.Hour), errType, limit)
	views := make([]errorView, 0, len(events))
	for _, ev := range events {
		views = append(views, errorView{
			ID:        ev.ID,
			Type:      ev.Type,
			Message:   ev.Message,
			Timestamp: ev.Timestamp,
			UserID:    ev.UserID,
			Resolved:  ev.Resolved,
		})
	}

	srv.writeJSON(w, http.StatusOK, map[string]any{
		"errors":            views,
		"total_errors":      len(views),
		"error_type_filter": errType,
		"period_hours":      hours,
		"generated_at":      time.Now(),
	})
}

func (srv *Server) ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f monitor.AlertFilter
	if s := q.Get("level"); s != "" {
		level, ok := model.ParseAlertLevel(strings.ToLower(s))
		if !ok {
			srv.writeError(w, http.StatusBadRequest, "Invalid alert level: "+s)
			return
		}
		f.Level = level
	}
	if s := q.Get("resolved"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			srv.writeError(w, http.StatusBadRequest, "resolved must be a boolean")
			return
		}
		f.Resolved = &b
	}
	limit, ok := queryInt(r, "limit", 50)
	if !ok {
		srv.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	alerts := srv.monitor.ListAlerts(f)
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}

	srv.writeJSON(w, http.StatusOK, map[string]any{
		"alerts":       alerts,
		"total_alerts": len(alerts),
		"filters": map[string]any{
			"level":    q.Get("level"),
			"resolved": f.Resolved,
		},
		"generated_at": time.Now(),
	})
}

type resolveRequest struct {
	AlertID         string `json:"alert_id"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

func (srv *Server) ResolveAlertHandler(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AlertID == "" {
		srv.writeError(w, http.StatusBadRequest, "alert_id is required")
		return
	}

	if !srv.monitor.ResolveAlert(req.AlertID) {
		srv.writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	if req.ResolutionNotes != "" {
		srv.config.Logger.Infow("alert resolution notes", "alert_id", req.AlertID, "notes", req.ResolutionNotes)
	}

	srv.writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"alert_id":         req.AlertID,
		"resolution_notes": req.ResolutionNotes,
		"resolved_at":      time.Now(),
		"message":          "Alert resolved successfully",
	})
}

type serviceHealth struct {
	Status       model.HealthStatus `json:"status"`
	ResponseTime float64            `json:"response_time"`
	Details      map[string]any     `json:"details,omitempty"`
}

// HealthHandler runs every check. The overall status is healthy only when
// every check is healthy; the response code is 503 otherwise.
func (srv *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	results := srv.monitor.RunAllHealthChecks(r.Context())

	overall := model.Healthy
	services := make(map[string]serviceHealth, len(results))
	for name, res := range results {
		services[name] = serviceHealth{Status: res.Status, ResponseTime: res.ResponseTime, Details: res.Details}
		if res.Status != model.Healthy {
			overall = model.Unhealthy
		}
	}

	body := map[string]any{
		"status":    overall,
		"services":  services,
		"timestamp": time.Now(),
	}
	if snap, err := srv.monitor.SystemSnapshot(r.Context()); err == nil {
		body["system_metrics"] = map[string]float64{
			"cpu_usage":    snap.CPUUsage,
			"memory_usage": snap.MemoryUsage,
			"disk_usage":   snap.DiskUsage,
		}
	} else {
		srv.config.Logger.Warnw("system metrics unavailable for health report", "error", err)
	}

	code := http.StatusOK
	if overall != model.Healthy {
		code = http.StatusServiceUnavailable
	}
	srv.writeJSON(w, code, body)
}

func (srv *Server) ServiceHealthHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service")
	srv.writeJSON(w, http.StatusOK, srv.monitor.RunHealthCheck(r.Context(), name))
}

func (srv *Server) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"performance_summary": srv.monitor.Summary(time.Hour),
		"critical_alerts":     srv.monitor.CriticalAlerts(),
		"request_throughput":  srv.monitor.Throughput(),
		"last_updated":        time.Now(),
	}

	unresolved := false
	body["active_alerts"] = len(srv.monitor.ListAlerts(monitor.AlertFilter{Resolved: &unresolved}))
	body["recent_errors"] = len(srv.monitor.Errors(time.Time{}, "", 10))

	if snap, err := srv.monitor.SystemSnapshot(r.Context()); err == nil {
		body["system_metrics"] = snap
	} else {
		srv.config.Logger.Warnw("system metrics unavailable for dashboard", "error", err)
	}
	srv.writeJSON(w, http.StatusOK, body)
}

func (srv *Server) ClearMetricsHandler(w http.ResponseWriter, r *http.Request) {
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !confirm {
		srv.writeError(w, http.StatusBadRequest, "Must confirm metrics clearing")
		return
	}

	n := srv.monitor.ClearMetrics()
	srv.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"metrics_cleared": n,
		"message":         "Metrics buffer cleared successfully",
	})
}

func (srv *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, map[string]any{
		"monitor":       srv.monitor.Stats(),
		"build":         buildinfo.Get(),
		"system_status": "operational",
	})
}

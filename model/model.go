// Package model contains core data types for the project.
package model

import "time"

// MetricKind defines what a performance sample measures.
type MetricKind string

const (
	ResponseTime  MetricKind = "response_time"
	Throughput    MetricKind = "throughput"
	ErrorRate     MetricKind = "error_rate"
	CPUUsage      MetricKind = "cpu_usage"
	MemoryUsage   MetricKind = "memory_usage"
	DiskUsage     MetricKind = "disk_usage"
	DBConnections MetricKind = "database_connections"
	ActiveUsers   MetricKind = "active_users"
)

// PerformanceMetric is a single immutable sample.
type PerformanceMetric struct {
	Name      string            `json:"metric_name"`
	Kind      MetricKind        `json:"metric_type"`
	Value     float64           `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// ErrorEvent is a tracked application error.
type ErrorEvent struct {
	ID         string         `json:"error_id"`
	Type       string         `json:"error_type"`
	Message    string         `json:"error_message"`
	StackTrace string         `json:"stack_trace"`
	Timestamp  time.Time      `json:"timestamp"`
	UserID     string         `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	Resolved   bool           `json:"resolved"`
}

// HealthStatus is the outcome of a single health check run.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
	Degraded  HealthStatus = "degraded"
	Unknown   HealthStatus = "unknown"
	Error     HealthStatus = "error"
)

// HealthCheckResult is produced per probe invocation and is not retained.
type HealthCheckResult struct {
	ServiceName  string         `json:"service_name"`
	Status       HealthStatus   `json:"status"`
	ResponseTime float64        `json:"response_time"` // seconds
	Timestamp    time.Time      `json:"timestamp"`
	Details      map[string]any `json:"details,omitempty"`
}

// AlertLevel is the severity of a SystemAlert.
type AlertLevel string

const (
	Info     AlertLevel = "info"
	Warning  AlertLevel = "warning"
	ErrorLvl AlertLevel = "error"
	Critical AlertLevel = "critical"
)

// ParseAlertLevel returns the level named by s and whether it is known.
func ParseAlertLevel(s string) (AlertLevel, bool) {
	switch l := AlertLevel(s); l {
	case Info, Warning, ErrorLvl, Critical:
		return l, true
	}
	return "", false
}

// SystemAlert is raised on threshold breaches and failed health checks.
// ResolvedAt is set if and only if Resolved is true.
type SystemAlert struct {
	ID          string         `json:"alert_id"`
	Level       AlertLevel     `json:"alert_level"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
	Resolved    bool           `json:"resolved"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SystemSnapshot is one sampling of host and process resources.
type SystemSnapshot struct {
	CPUUsage         float64   `json:"cpu_usage"`
	MemoryUsage      float64   `json:"memory_usage"`
	MemoryTotal      uint64    `json:"memory_total"`
	MemoryUsed       uint64    `json:"memory_used"`
	DiskUsage        float64   `json:"disk_usage"`
	DiskTotal        uint64    `json:"disk_total"`
	DiskUsed         uint64    `json:"disk_used"`
	NetworkBytesSent uint64    `json:"network_bytes_sent"`
	NetworkBytesRecv uint64    `json:"network_bytes_recv"`
	ProcessRSS       uint64    `json:"process_memory_rss"`
	ProcessVMS       uint64    `json:"process_memory_vms"`
	Goroutines       int       `json:"goroutines"`
	HeapAlloc        uint64    `json:"heap_alloc"`
	Timestamp        time.Time `json:"timestamp"`
}

// Summary aggregates the monitoring stores over a time window.
type Summary struct {
	PeriodHours         float64         `json:"period_hours"`
	TotalRequests       int             `json:"total_requests"`
	AverageResponseTime float64         `json:"average_response_time"`
	MaxResponseTime     float64         `json:"max_response_time"`
	MinResponseTime     float64         `json:"min_response_time"`
	AverageCPUUsage     float64         `json:"average_cpu_usage"`
	AverageMemoryUsage  float64         `json:"average_memory_usage"`
	TotalErrors         int             `json:"total_errors"`
	ErrorTypes          map[string]int  `json:"error_types"`
	CurrentSystem       *SystemSnapshot `json:"current_system_metrics,omitempty"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// RequestSample is one tracked API call.
type RequestSample struct {
	Duration   float64   `json:"duration"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// EndpointStats describes recent traffic of one method:endpoint key.
type EndpointStats struct {
	TotalRequests   int64           `json:"total_requests"`
	AverageDuration float64         `json:"average_duration"`
	MinDuration     float64         `json:"min_duration"`
	MaxDuration     float64         `json:"max_duration"`
	SuccessRate     float64         `json:"success_rate"`
	RecentRequests  []RequestSample `json:"recent_requests"`
}

// Package config provides application configuration structures and helpers.
package config

import (
	"time"

	"go.uber.org/zap"
)

// Thresholds are the breach limits used by the alerting policy.
type Thresholds struct {
	ResponseTime float64 `json:"response_time"` // seconds
	ErrorRate    float64 `json:"error_rate"`    // percent
	CPUUsage     float64 `json:"cpu_usage"`     // percent
	MemoryUsage  float64 `json:"memory_usage"`  // percent
	DiskUsage    float64 `json:"disk_usage"`    // percent
}

// DefaultThresholds returns the stock alerting limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ResponseTime: 5.0,
		ErrorRate:    5.0,
		CPUUsage:     80.0,
		MemoryUsage:  85.0,
		DiskUsage:    90.0,
	}
}

// ServerConfig holds the configuration settings for the monitoring server.
type ServerConfig struct {
	Addr   string // Server address
	Logger *zap.SugaredLogger

	SampleInterval time.Duration // System sampling period
	HealthInterval time.Duration // Health check period
	ProbeTimeout   time.Duration // Per-probe deadline
	MetricCapacity int           // Max samples kept in memory
	RequestWindow  int           // Recent request durations kept
	EndpointWindow int           // Samples kept per method:endpoint
	Thresholds     Thresholds

	StoreInterval   time.Duration // Interval for snapshotting metrics to file, 0 disables
	FileStoragePath string        // Path to the metrics snapshot file
	Restore         bool          // Whether to restore metrics from file on startup
	DatabaseDsn     string        // Data Source Name for PostgreSQL
	Key             string        // HMAC key for signed bodies
	TrustedSubnet   string        // CIDR allowed on admin routes, ex. "192.168.1.0/24"

	WebhookURL       string // Critical alert webhook
	SentryDSN        string // Critical alert Sentry project
	PaymentStatusURL string // Payment processor status endpoint for the payments probe
	AnalyticsURL     string // User analytics collector receiving reported errors
	DiskPath         string // Mount point sampled for disk usage
	LogFile          string // Extra zap output path
}

// Default returns a config populated with default values and no logger.
func Default() *ServerConfig {
	return &ServerConfig{
		Addr:            "localhost:8080",
		SampleInterval:  30 * time.Second,
		HealthInterval:  60 * time.Second,
		ProbeTimeout:    10 * time.Second,
		MetricCapacity:  10000,
		RequestWindow:   1000,
		EndpointWindow:  100,
		Thresholds:      DefaultThresholds(),
		StoreInterval:   300 * time.Second,
		FileStoragePath: "./tmp/metrics-db.json",
		Restore:         true,
		DiskPath:        "/",
		LogFile:         "monitor.log",
	}
}

// Package probes holds the stock health checks of the service.
package probes

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fitcoach/perfmon/internal/collector"
	"github.com/fitcoach/perfmon/internal/monitor"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type statter interface {
	Stat() map[string]any
}

// Database pings the store. Pool statistics are reported when the store
// exposes them.
func Database(db pinger) monitor.Probe {
	return monitor.ProbeFunc(func(ctx context.Context) (monitor.ProbeResult, error) {
		if err := db.Ping(ctx); err != nil {
			return monitor.ProbeResult{
				Healthy: false,
				Details: map[string]any{"error": err.Error()},
			}, nil
		}
		details := map[string]any{"connection": "ok"}
		if s, ok := db.(statter); ok {
			details["pool"] = s.Stat()
		}
		return monitor.ProbeResult{Healthy: true, Details: details}, nil
	})
}

// Storage checks that dir is writable and reports free space. Usage at or
// above degradedPct marks the check degraded.
func Storage(dir string, degradedPct float64) monitor.Probe {
	return monitor.ProbeFunc(func(ctx context.Context) (monitor.ProbeResult, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return monitor.ProbeResult{}, fmt.Errorf("create dir: %w", err)
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return monitor.ProbeResult{
				Healthy: false,
				Details: map[string]any{"path": dir, "writable": false, "error": err.Error()},
			}, nil
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)

		details := map[string]any{"path": dir, "writable": true}
		free, used, err := collector.FreeDisk(ctx, dir)
		if err != nil {
			return monitor.ProbeResult{Healthy: true, Details: details}, nil
		}
		details["free_bytes"] = free
		details["used_percent"] = used
		return monitor.ProbeResult{Healthy: true, Degraded: used >= degradedPct, Details: details}, nil
	})
}

type statusGetter interface {
	Status(ctx context.Context, url string) (int, error)
}

// Payments queries the processor status URL; any 2xx is healthy.
func Payments(c statusGetter, url string) monitor.Probe {
	return monitor.ProbeFunc(func(ctx context.Context) (monitor.ProbeResult, error) {
		code, err := c.Status(ctx, url)
		if err != nil {
			return monitor.ProbeResult{}, fmt.Errorf("payment processor: %w", err)
		}
		return monitor.ProbeResult{
			Healthy: code >= http.StatusOK && code < http.StatusMultipleChoices,
			Details: map[string]any{"status_code": code, "processor": "reachable"},
		}, nil
	})
}

// SnapshotDir returns the directory holding the metric snapshot file, or ""
// when no snapshot file is configured.
func SnapshotDir(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}

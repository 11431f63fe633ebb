package config

import (
	"encoding/json"
	"os"
	"time"
)

type serverJSON struct {
	Address          *string     `json:"address"`
	SampleInterval   *string     `json:"sample_interval"` // "30s"
	HealthInterval   *string     `json:"health_interval"`
	ProbeTimeout     *string     `json:"probe_timeout"`
	MetricCapacity   *int        `json:"metric_capacity"`
	Thresholds       *Thresholds `json:"thresholds"`
	Restore          *bool       `json:"restore"`
	StoreInterval    *string     `json:"store_interval"`
	StoreFile        *string     `json:"store_file"`
	DatabaseDSN      *string     `json:"database_dsn"`
	TrustedSubnet    *string     `json:"trusted_subnet"`
	WebhookURL       *string     `json:"webhook_url"`
	SentryDSN        *string     `json:"sentry_dsn"`
	PaymentStatusURL *string     `json:"payment_status_url"`
	AnalyticsURL     *string     `json:"analytics_url"`
	DiskPath         *string     `json:"disk_path"`
	LogFile          *string     `json:"log_file"`
}

func loadServerJSON(path string) (*serverJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg serverJSON
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// apply copies JSON values into cfg. Values in a partial thresholds object
// override only the fields that are non-zero.
func (js *serverJSON) apply(cfg *ServerConfig) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setDur := func(dst *time.Duration, v *string) {
		if v == nil {
			return
		}
		if d, err := parseDuration(*v); err == nil {
			*dst = d
		}
	}

	setStr(&cfg.Addr, js.Address)
	setDur(&cfg.SampleInterval, js.SampleInterval)
	setDur(&cfg.HealthInterval, js.HealthInterval)
	setDur(&cfg.ProbeTimeout, js.ProbeTimeout)
	setDur(&cfg.StoreInterval, js.StoreInterval)
	if js.MetricCapacity != nil {
		cfg.MetricCapacity = *js.MetricCapacity
	}
	if js.Restore != nil {
		cfg.Restore = *js.Restore
	}
	if t := js.Thresholds; t != nil {
		mergeThreshold(&cfg.Thresholds.ResponseTime, t.ResponseTime)
		mergeThreshold(&cfg.Thresholds.ErrorRate, t.ErrorRate)
		mergeThreshold(&cfg.Thresholds.CPUUsage, t.CPUUsage)
		mergeThreshold(&cfg.Thresholds.MemoryUsage, t.MemoryUsage)
		mergeThreshold(&cfg.Thresholds.DiskUsage, t.DiskUsage)
	}
	setStr(&cfg.FileStoragePath, js.StoreFile)
	setStr(&cfg.DatabaseDsn, js.DatabaseDSN)
	setStr(&cfg.TrustedSubnet, js.TrustedSubnet)
	setStr(&cfg.WebhookURL, js.WebhookURL)
	setStr(&cfg.SentryDSN, js.SentryDSN)
	setStr(&cfg.PaymentStatusURL, js.PaymentStatusURL)
	setStr(&cfg.AnalyticsURL, js.AnalyticsURL)
	setStr(&cfg.DiskPath, js.DiskPath)
	setStr(&cfg.LogFile, js.LogFile)
}

func mergeThreshold(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

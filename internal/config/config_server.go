package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// NewServerConfig builds the config from defaults, an optional JSON file,
// command line flags and the environment, in increasing priority, and
// attaches a production logger.
func NewServerConfig() *ServerConfig {
	cfg, err := parseServerConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := NewLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	cfg.Logger = logger
	return cfg
}

// NewLogger returns a production zap logger writing to stdout and, when set,
// to logFile.
func NewLogger(logFile string) (*zap.SugaredLogger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout"}
	if logFile != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, logFile)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func parseServerConfig(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	// 0) defaults
	cfg := Default()

	var fAddr, fFile, fDSN, fKey, fConf, fTrustedSubnet, fWebhook, fSentry, fPayments, fAnalytics, fDisk strFlag
	var fSample, fHealth, fProbe, fStoreI durFlag
	var fCapacity intFlag
	var fRestore boolFlag
	var fRespT, fErrRate, fCPU, fMem, fDiskT floatFlag

	fs.Var(&fAddr, "a", "HTTP server address")
	fs.Var(&fSample, "s", "system sampling interval")
	fs.Var(&fHealth, "h", "health check interval")
	fs.Var(&fProbe, "probe-timeout", "per-probe timeout")
	fs.Var(&fCapacity, "m", "metric buffer capacity")
	fs.Var(&fStoreI, "i", "metrics snapshot interval, 0 disables")
	fs.Var(&fFile, "f", "path to metrics snapshot file")
	fs.Var(&fRestore, "r", "restore metrics from snapshot")
	fs.Var(&fDSN, "d", "DB connection string")
	fs.Var(&fKey, "k", "HMAC key string")
	fs.Var(&fTrustedSubnet, "t", "trusted subnet for admin routes")
	fs.Var(&fWebhook, "webhook", "critical alert webhook URL")
	fs.Var(&fSentry, "sentry-dsn", "Sentry DSN for critical alerts")
	fs.Var(&fPayments, "payment-status-url", "payment processor status URL")
	fs.Var(&fAnalytics, "analytics-url", "analytics collector URL for reported errors")
	fs.Var(&fDisk, "disk-path", "mount point sampled for disk usage")
	fs.Var(&fRespT, "threshold-response-time", "slow request threshold, seconds")
	fs.Var(&fErrRate, "threshold-error-rate", "error rate threshold, percent")
	fs.Var(&fCPU, "threshold-cpu", "CPU usage threshold, percent")
	fs.Var(&fMem, "threshold-memory", "memory usage threshold, percent")
	fs.Var(&fDiskT, "threshold-disk", "disk usage threshold, percent")
	fs.Var(&fConf, "c", "Path to JSON config file")
	fs.Var(&fConf, "config", "Path to JSON config file (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// 1) JSON (lowest priority above defaults)
	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}
	if fConf.v != "" {
		js, err := loadServerJSON(fConf.v)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", fConf.v, err)
		}
		js.apply(cfg)
	}

	// 2) flags
	if fAddr.set {
		cfg.Addr = fAddr.v
	}
	if fSample.set {
		cfg.SampleInterval = fSample.v
	}
	if fHealth.set {
		cfg.HealthInterval = fHealth.v
	}
	if fProbe.set {
		cfg.ProbeTimeout = fProbe.v
	}
	if fCapacity.set {
		cfg.MetricCapacity = fCapacity.v
	}
	if fStoreI.set {
		cfg.StoreInterval = fStoreI.v
	}
	if fFile.set {
		cfg.FileStoragePath = fFile.v
	}
	if fRestore.set {
		cfg.Restore = fRestore.v
	}
	if fDSN.set {
		cfg.DatabaseDsn = fDSN.v
	}
	if fKey.set {
		cfg.Key = fKey.v
	}
	if fTrustedSubnet.set {
		cfg.TrustedSubnet = fTrustedSubnet.v
	}
	if fWebhook.set {
		cfg.WebhookURL = fWebhook.v
	}
	if fSentry.set {
		cfg.SentryDSN = fSentry.v
	}
	if fPayments.set {
		cfg.PaymentStatusURL = fPayments.v
	}
	if fAnalytics.set {
		cfg.AnalyticsURL = fAnalytics.v
	}
	if fDisk.set {
		cfg.DiskPath = fDisk.v
	}
	for _, th := range []struct {
		f   *floatFlag
		dst *float64
	}{
		{&fRespT, &cfg.Thresholds.ResponseTime},
		{&fErrRate, &cfg.Thresholds.ErrorRate},
		{&fCPU, &cfg.Thresholds.CPUUsage},
		{&fMem, &cfg.Thresholds.MemoryUsage},
		{&fDiskT, &cfg.Thresholds.DiskUsage},
	} {
		if th.f.set {
			*th.dst = th.f.v
		}
	}

	// 3) environment
	readServerEnvironment(cfg)

	return cfg, nil
}

func readServerEnvironment(cfg *ServerConfig) {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Addr = addr
	}

	envDuration("SAMPLE_INTERVAL", &cfg.SampleInterval)
	envDuration("HEALTH_INTERVAL", &cfg.HealthInterval)
	envDuration("PROBE_TIMEOUT", &cfg.ProbeTimeout)
	envDuration("STORE_INTERVAL", &cfg.StoreInterval)

	if v := os.Getenv("METRIC_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MetricCapacity = n
		} else {
			log.Printf("invalid METRIC_CAPACITY env var: %v", err)
		}
	}

	if fsp := os.Getenv("FILE_STORAGE_PATH"); fsp != "" {
		cfg.FileStoragePath = fsp
	}

	if dbDsn := os.Getenv("DATABASE_DSN"); dbDsn != "" {
		cfg.DatabaseDsn = dbDsn
	}

	restoreEnv := os.Getenv("RESTORE")
	if restoreEnv != "" {
		v, err := strconv.ParseBool(restoreEnv)
		if err == nil {
			cfg.Restore = v
		} else {
			log.Printf("invalid RESTORE env var: %v", err)
		}
	}

	if key := os.Getenv("KEY"); key != "" {
		cfg.Key = key
	}

	if trustedSubnet := os.Getenv("TRUSTED_SUBNET"); trustedSubnet != "" {
		cfg.TrustedSubnet = trustedSubnet
	}

	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if v := os.Getenv("PAYMENT_STATUS_URL"); v != "" {
		cfg.PaymentStatusURL = v
	}
	if v := os.Getenv("ANALYTICS_URL"); v != "" {
		cfg.AnalyticsURL = v
	}
	if v := os.Getenv("DISK_PATH"); v != "" {
		cfg.DiskPath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

func envDuration(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := parseDuration(v)
	if err != nil {
		log.Printf("invalid %s env var: %v", name, err)
		return
	}
	*dst = d
}

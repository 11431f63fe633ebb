package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitcoach/perfmon/internal/buildinfo"
	"github.com/fitcoach/perfmon/internal/client"
	"github.com/fitcoach/perfmon/internal/config"
	"github.com/fitcoach/perfmon/internal/monitor"
	"github.com/fitcoach/perfmon/internal/notify"
	"github.com/fitcoach/perfmon/internal/probes"
	"github.com/fitcoach/perfmon/internal/server"
	"github.com/fitcoach/perfmon/internal/telemetry"
	"github.com/fitcoach/perfmon/storage/postgres"
)

const outboundTimeout = 10 * time.Second

func main() {
	config := config.NewServerConfig()
	defer func() { _ = config.Logger.Sync() }()
	buildinfo.Log(config.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := monitor.Options{Metrics: telemetry.New()}

	var store *postgres.PostgresStorage
	if config.DatabaseDsn != "" {
		var err error
		store, err = postgres.NewPostgresStorage(ctx, config.DatabaseDsn)
		if err != nil {
			config.Logger.Fatal(err)
		}
		defer store.Close()
		opts.Storage = store
	}

	httpClient := client.New(outboundTimeout, config.Key)

	notifiers := notify.Multi{notify.NewLog(config.Logger)}
	if config.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhook(httpClient, config.WebhookURL, notify.DefaultBreakerSettings(), config.Logger))
	}
	if config.SentryDSN != "" {
		s, err := notify.NewSentry(config.SentryDSN, buildinfo.Get().Version)
		if err != nil {
			config.Logger.Fatal(err)
		}
		defer s.Close()
		notifiers = append(notifiers, s)
	}
	opts.Notifier = notifiers

	if config.AnalyticsURL != "" {
		opts.Analytics = client.NewAnalytics(httpClient, config.AnalyticsURL)
	}

	m := monitor.New(config, opts)
	if store != nil {
		m.RegisterHealthCheck("database", probes.Database(store))
	}
	if dir := probes.SnapshotDir(config.FileStoragePath); dir != "" {
		m.RegisterHealthCheck("storage", probes.Storage(dir, config.Thresholds.DiskUsage))
	}
	if config.PaymentStatusURL != "" {
		m.RegisterHealthCheck("payments", probes.Payments(httpClient, config.PaymentStatusURL))
	}

	config.Logger.Infow("server config",
		"addr", config.Addr,
		"sample_interval", config.SampleInterval,
		"health_interval", config.HealthInterval,
		"store_interval", config.StoreInterval,
		"file_storage_path", config.FileStoragePath,
		"restore", config.Restore,
		"database", config.DatabaseDsn != "",
		"webhook", config.WebhookURL != "",
		"sentry", config.SentryDSN != "",
	)

	if err := m.Start(ctx); err != nil {
		config.Logger.Fatal(err)
	}
	defer m.Stop()

	srv := server.NewServer(m, config)
	if err := srv.Run(ctx); err != nil {
		config.Logger.Errorw("server stopped", "error", err)
	}
}

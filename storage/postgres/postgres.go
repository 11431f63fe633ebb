// Package postgres persists monitoring records to PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitcoach/perfmon/internal/utils"
	"github.com/fitcoach/perfmon/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS performance_metrics (
	id          BIGSERIAL PRIMARY KEY,
	metric_name TEXT NOT NULL,
	metric_type TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	labels      JSONB NOT NULL DEFAULT '{}',
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS performance_metrics_type_time ON performance_metrics (metric_type, recorded_at);

CREATE TABLE IF NOT EXISTS error_events (
	error_id      TEXT PRIMARY KEY,
	error_type    TEXT NOT NULL,
	error_message TEXT NOT NULL,
	stack_trace   TEXT NOT NULL DEFAULT '',
	user_id       TEXT,
	session_id    TEXT,
	context       JSONB NOT NULL DEFAULT '{}',
	resolved      BOOLEAN NOT NULL DEFAULT FALSE,
	occurred_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS system_alerts (
	alert_id    TEXT PRIMARY KEY,
	alert_level TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	metadata    JSONB NOT NULL DEFAULT '{}',
	resolved    BOOLEAN NOT NULL DEFAULT FALSE,
	resolved_at TIMESTAMPTZ,
	raised_at   TIMESTAMPTZ NOT NULL
);`

type PostgresStorage struct {
	db *pgxpool.Pool
}

// NewPostgresStorage connects to databaseDsn and creates the schema.
func NewPostgresStorage(ctx context.Context, databaseDsn string) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, databaseDsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	store := &PostgresStorage{db: db}
	err = utils.WithRetry(ctx, func() error {
		_, e := db.Exec(ctx, schema)
		return e
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return store, nil
}

func (store *PostgresStorage) SaveMetric(ctx context.Context, m model.PerformanceMetric) error {
	labels, err := jsonb(m.Labels)
	if err != nil {
		return err
	}
	return store.exec(ctx,
		`INSERT INTO performance_metrics (metric_name, metric_type, value, labels, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.Name, string(m.Kind), m.Value, labels, m.Timestamp)
}

func (store *PostgresStorage) SaveError(ctx context.Context, e model.ErrorEvent) error {
	errCtx, err := jsonb(e.Context)
	if err != nil {
		return err
	}
	return store.exec(ctx,
		`INSERT INTO error_events (error_id, error_type, error_message, stack_trace, user_id, session_id, context, resolved, occurred_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
		 ON CONFLICT (error_id) DO UPDATE SET resolved = EXCLUDED.resolved`,
		e.ID, e.Type, e.Message, e.StackTrace, e.UserID, e.SessionID, errCtx, e.Resolved, e.Timestamp)
}

func (store *PostgresStorage) SaveAlert(ctx context.Context, a model.SystemAlert) error {
	meta, err := jsonb(a.Metadata)
	if err != nil {
		return err
	}
	return store.exec(ctx,
		`INSERT INTO system_alerts (alert_id, alert_level, title, description, metadata, resolved, resolved_at, raised_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (alert_id) DO UPDATE SET resolved = EXCLUDED.resolved, resolved_at = EXCLUDED.resolved_at`,
		a.ID, string(a.Level), a.Title, a.Description, meta, a.Resolved, a.ResolvedAt, a.Timestamp)
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

// Stat reports pool usage for the database health probe.
func (store *PostgresStorage) Stat() map[string]any {
	s := store.db.Stat()
	return map[string]any{
		"connections":      s.TotalConns(),
		"idle_connections": s.IdleConns(),
		"max_connections":  s.MaxConns(),
	}
}

func (store *PostgresStorage) Close() {
	store.db.Close()
}

func (store *PostgresStorage) exec(ctx context.Context, sql string, args ...any) error {
	return utils.WithRetry(ctx, func() error {
		_, err := store.db.Exec(ctx, sql, args...)
		return err
	})
}

func jsonb(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	if string(b) == "null" {
		return []byte("{}"), nil
	}
	return b, nil
}

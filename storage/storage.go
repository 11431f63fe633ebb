// Package storage declares the optional persistence collaborator of the
// monitor.
package storage

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks github.com/fitcoach/perfmon/storage Storage

import (
	"context"

	"github.com/fitcoach/perfmon/model"
)

// Storage persists monitoring records. Alerts are upserted by id so that a
// resolution overwrites the stored row.
type Storage interface {
	SaveMetric(ctx context.Context, m model.PerformanceMetric) error
	SaveError(ctx context.Context, e model.ErrorEvent) error
	SaveAlert(ctx context.Context, a model.SystemAlert) error
	Ping(ctx context.Context) error
}

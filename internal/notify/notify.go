// Package notify delivers critical alerts to out-of-band channels.
package notify

import (
	"context"
	"errors"

	"github.com/fitcoach/perfmon/model"
	"go.uber.org/zap"
)

// Notifier matches monitor.Notifier.
type Notifier interface {
	Notify(ctx context.Context, alert model.SystemAlert) error
}

// Log writes the alert to the logger. It never fails.
type Log struct {
	logger *zap.SugaredLogger
}

func NewLog(logger *zap.SugaredLogger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, a model.SystemAlert) error {
	l.logger.Errorw("CRITICAL ALERT NOTIFICATION",
		"alert_id", a.ID,
		"title", a.Title,
		"description", a.Description,
		"metadata", a.Metadata,
	)
	return nil
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a model.SystemAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

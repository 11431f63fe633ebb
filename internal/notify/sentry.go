package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/fitcoach/perfmon/model"
	"github.com/getsentry/sentry-go"
)

// Sentry reports critical alerts as fatal-level messages on a private hub.
type Sentry struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

func NewSentry(dsn, release string) (*Sentry, error) {
	return newSentry(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: false,
	})
}

func newSentry(opts sentry.ClientOptions) (*Sentry, error) {
	c, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	return &Sentry{
		hub:          sentry.NewHub(c, sentry.NewScope()),
		flushTimeout: 2 * time.Second,
	}, nil
}

func (s *Sentry) Notify(ctx context.Context, a model.SystemAlert) error {
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTag("alert_level", string(a.Level))
		scope.SetTag("alert_id", a.ID)
		scope.SetContext("alert", sentry.Context{
			"description": a.Description,
			"metadata":    a.Metadata,
			"timestamp":   a.Timestamp,
		})
		s.hub.CaptureMessage(a.Title)
	})
	return nil
}

// Close flushes buffered events.
func (s *Sentry) Close() {
	s.hub.Flush(s.flushTimeout)
}

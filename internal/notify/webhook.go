package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitcoach/perfmon/internal/client"
	"github.com/fitcoach/perfmon/internal/errs"
	"github.com/fitcoach/perfmon/model"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings tune the webhook circuit breaker.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 5, OpenTimeout: 30 * time.Second}
}

// Webhook posts alerts as gzip JSON. After FailureThreshold consecutive
// failures the breaker opens and deliveries fail fast until OpenTimeout
// passes.
type Webhook struct {
	client *client.Client
	url    string
	cb     *gobreaker.CircuitBreaker
}

func NewWebhook(c *client.Client, url string, s BreakerSettings, logger *zap.SugaredLogger) *Webhook {
	return &Webhook{
		client: c,
		url:    url,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "alert-webhook",
			MaxRequests: 1,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= s.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnw("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

type webhookPayload struct {
	Event string            `json:"event"`
	Alert model.SystemAlert `json:"alert"`
}

func (w *Webhook) Notify(ctx context.Context, a model.SystemAlert) error {
	_, err := w.cb.Execute(func() (interface{}, error) {
		return nil, w.client.PostJSON(ctx, w.url, webhookPayload{Event: "critical_alert", Alert: a})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", errs.ErrCircuitOpen, err)
	}
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (w *Webhook) State() string {
	return w.cb.State().String()
}

package monitor

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers critical alerts out of band. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, alert model.SystemAlert) error
}

// AlertFilter narrows List. Nil Resolved and empty Level match everything.
type AlertFilter struct {
	Resolved *bool
	Level    model.AlertLevel
}

// AlertManager stores alerts for the life of the process. Every Raise
// creates a new alert; there is no de-duplication.
type AlertManager struct {
	mu     sync.RWMutex
	alerts map[string]*model.SystemAlert

	notifier      Notifier
	notifyTimeout time.Duration
	onChange      func(model.SystemAlert)
	onRaise       func(model.AlertLevel)
	logger        *zap.SugaredLogger
	now           func() time.Time
	inflight      sync.WaitGroup
}

func NewAlertManager(logger *zap.SugaredLogger, notifier Notifier) *AlertManager {
	return &AlertManager{
		alerts:        make(map[string]*model.SystemAlert),
		notifier:      notifier,
		notifyTimeout: 10 * time.Second,
		logger:        logger,
		now:           time.Now,
	}
}

// Raise records a new alert and returns its id. Critical alerts are also
// handed to the notifier in the background.
func (am *AlertManager) Raise(level model.AlertLevel, title, description string, metadata map[string]any) string {
	alert := model.SystemAlert{
		ID:          "alert_" + uuid.Must(uuid.NewV7()).String(),
		Level:       level,
		Title:       title,
		Description: description,
		Timestamp:   am.now(),
		Metadata:    metadata,
	}
	if alert.Metadata == nil {
		alert.Metadata = map[string]any{}
	}

	am.mu.Lock()
	stored := alert
	am.alerts[alert.ID] = &stored
	am.mu.Unlock()

	am.log(alert)
	if am.onRaise != nil {
		am.onRaise(level)
	}
	if am.onChange != nil {
		am.onChange(alert)
	}
	if level == model.Critical {
		am.dispatch(alert)
	}
	return alert.ID
}

func (am *AlertManager) log(a model.SystemAlert) {
	msg := fmt.Sprintf("ALERT [%s] %s: %s", a.Level, a.Title, a.Description)
	switch a.Level {
	case model.Info:
		am.logger.Infow(msg, "alert_id", a.ID)
	case model.Warning:
		am.logger.Warnw(msg, "alert_id", a.ID)
	case model.Critical:
		am.logger.Errorw(msg, "alert_id", a.ID, "critical", true)
	default:
		am.logger.Errorw(msg, "alert_id", a.ID)
	}
}

func (am *AlertManager) dispatch(a model.SystemAlert) {
	am.logger.Errorw("critical alert notification", "alert_id", a.ID, "title", a.Title)
	if am.notifier == nil {
		return
	}

	am.inflight.Add(1)
	go func() {
		defer am.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				am.logger.Errorw("critical alert notifier panicked", "alert_id", a.ID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), am.notifyTimeout)
		defer cancel()
		if err := am.notifier.Notify(ctx, a); err != nil {
			am.logger.Errorw("critical alert notification failed", "alert_id", a.ID, "error", err)
		}
	}()
}

// Wait blocks until every in-flight notification has finished.
func (am *AlertManager) Wait() {
	am.inflight.Wait()
}

// List returns matching alerts, newest first.
func (am *AlertManager) List(f AlertFilter) []model.SystemAlert {
	am.mu.RLock()
	out := make([]model.SystemAlert, 0, len(am.alerts))
	for _, a := range am.alerts {
		if f.Resolved != nil && a.Resolved != *f.Resolved {
			continue
		}
		if f.Level != "" && a.Level != f.Level {
			continue
		}
		out = append(out, *a)
	}
	am.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.SystemAlert) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (am *AlertManager) Get(id string) (model.SystemAlert, bool) {
	am.mu.RLock()
	defer am.mu.RUnlock()

	a, ok := am.alerts[id]
	if !ok {
		return model.SystemAlert{}, false
	}
	return *a, true
}

// Resolve marks the alert resolved. It is idempotent: resolving an already
// resolved alert returns true and keeps the original ResolvedAt. Unknown ids
// return false.
func (am *AlertManager) Resolve(id string) bool {
	am.mu.Lock()
	a, ok := am.alerts[id]
	if !ok {
		am.mu.Unlock()
		am.logger.Warnw("alert not found", "alert_id", id)
		return false
	}
	if a.Resolved {
		am.mu.Unlock()
		return true
	}
	at := am.now()
	a.Resolved = true
	a.ResolvedAt = &at
	resolved := *a
	am.mu.Unlock()

	am.logger.Infow("alert resolved", "alert_id", id)
	if am.onChange != nil {
		am.onChange(resolved)
	}
	return true
}

// Counts returns the total number of alerts and how many are unresolved.
func (am *AlertManager) Counts() (total, active int) {
	am.mu.RLock()
	defer am.mu.RUnlock()

	for _, a := range am.alerts {
		if !a.Resolved {
			active++
		}
	}
	return len(am.alerts), active
}

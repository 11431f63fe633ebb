package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fitcoach/perfmon/internal/config"
	"github.com/fitcoach/perfmon/model"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu    sync.Mutex
	snaps []model.SystemSnapshot
	err   error
	calls int
}

func (f *fakeSource) Collect(context.Context) (model.SystemSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return model.SystemSnapshot{}, f.err
	}
	if len(f.snaps) == 0 {
		return model.SystemSnapshot{Timestamp: time.Now()}, nil
	}
	s := f.snaps[0]
	if len(f.snaps) > 1 {
		f.snaps = f.snaps[1:]
	}
	s.Timestamp = time.Now()
	return s, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	got  []model.SystemAlert
	err  error
	wait chan struct{}
}

func (f *fakeNotifier) Notify(ctx context.Context, a model.SystemAlert) error {
	if f.wait != nil {
		select {
		case <-f.wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, a)
	return f.err
}

func (f *fakeNotifier) Alerts() []model.SystemAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SystemAlert(nil), f.got...)
}

type fakeAnalytics struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (f *fakeAnalytics) RecordError(_ context.Context, userID, _, _ string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	return f.err
}

func (f *fakeAnalytics) Users() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

var errBoom = errors.New("boom")

// testConfig has every background loop disabled.
func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()

	cfg := config.Default()
	cfg.Logger = zap.NewNop().Sugar()
	cfg.SampleInterval = 0
	cfg.HealthInterval = 0
	cfg.StoreInterval = 0
	cfg.FileStoragePath = ""
	cfg.Restore = false
	cfg.ProbeTimeout = time.Second
	return cfg
}

func countTitled(alerts []model.SystemAlert, title string) int {
	n := 0
	for _, a := range alerts {
		if a.Title == title {
			n++
		}
	}
	return n
}

type panicNotifier struct{}

func (panicNotifier) Notify(context.Context, model.SystemAlert) error {
	panic("notifier exploded")
}

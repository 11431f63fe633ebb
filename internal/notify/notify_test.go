package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fitcoach/perfmon/internal/client"
	"github.com/fitcoach/perfmon/internal/errs"
	"github.com/fitcoach/perfmon/internal/utils"
	"github.com/fitcoach/perfmon/model"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var alert = model.SystemAlert{
	ID:          "alert_1",
	Level:       model.Critical,
	Title:       "Critical Error: database_error",
	Description: "connection lost",
	Timestamp:   time.Now(),
	Metadata:    map[string]any{"error_type": "database_error"},
}

type failing struct{ err error }

func (f failing) Notify(context.Context, model.SystemAlert) error { return f.err }

func TestLog(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	require.NoError(t, NewLog(zap.New(core).Sugar()).Notify(context.Background(), alert))

	entries := logs.FilterMessage("CRITICAL ALERT NOTIFICATION").All()
	require.Len(t, entries, 1)
	require.Equal(t, "alert_1", entries[0].ContextMap()["alert_id"])
}

func TestMulti(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	m := Multi{failing{}, failing{err: e1}, NewLog(zap.NewNop().Sugar()), failing{err: e2}}

	err := m.Notify(context.Background(), alert)
	require.ErrorIs(t, err, e1)
	require.ErrorIs(t, err, e2)

	require.NoError(t, Multi{}.Notify(context.Background(), alert))
}

func TestWebhook_Delivers(t *testing.T) {
	var got atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get(utils.HashHeader))
		got.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	wh := NewWebhook(client.New(time.Second, "k"), ts.URL, DefaultBreakerSettings(), zap.NewNop().Sugar())
	require.NoError(t, wh.Notify(context.Background(), alert))
	require.EqualValues(t, 1, got.Load())
	require.Equal(t, "closed", wh.State())
}

func TestWebhook_BreakerOpens(t *testing.T) {
	var got atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	s := BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute}
	wh := NewWebhook(client.New(time.Second, ""), ts.URL, s, zap.NewNop().Sugar())

	for i := 0; i < 2; i++ {
		err := wh.Notify(context.Background(), alert)
		var se *client.StatusError
		require.ErrorAs(t, err, &se)
	}
	require.Equal(t, "open", wh.State())

	err := wh.Notify(context.Background(), alert)
	require.ErrorIs(t, err, errs.ErrCircuitOpen)
	require.EqualValues(t, 2, got.Load())
}

func TestSentry_InvalidDSN(t *testing.T) {
	_, err := NewSentry("not a dsn", "test")
	require.Error(t, err)
}

func TestSentry_CapturesFatal(t *testing.T) {
	events := make(chan *sentry.Event, 1)
	s, err := newSentry(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events <- e
			return nil
		},
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Notify(context.Background(), alert))

	select {
	case e := <-events:
		require.Equal(t, sentry.LevelFatal, e.Level)
		require.Equal(t, alert.Title, e.Message)
		require.Equal(t, "critical", e.Tags["alert_level"])
	case <-time.After(time.Second):
		t.Fatal("event not captured")
	}
}

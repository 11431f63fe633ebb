package monitor

import (
	"testing"
	"time"

	"github.com/fitcoach/perfmon/internal/utils"
	"github.com/fitcoach/perfmon/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAlertManager_RaiseAndList(t *testing.T) {
	am := NewAlertManager(zap.NewNop().Sugar(), nil)

	base := time.Now()
	tick := 0
	am.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	idInfo := am.Raise(model.Info, "a", "first", nil)
	idWarn := am.Raise(model.Warning, "b", "second", map[string]any{"k": 1})
	idErr := am.Raise(model.ErrorLvl, "c", "third", nil)

	all := am.List(AlertFilter{})
	require.Len(t, all, 3)
	require.Equal(t, []string{idErr, idWarn, idInfo}, []string{all[0].ID, all[1].ID, all[2].ID})
	require.NotNil(t, all[2].Metadata)
	require.Equal(t, 1, all[1].Metadata["k"])

	warn := am.List(AlertFilter{Level: model.Warning})
	require.Len(t, warn, 1)
	require.Equal(t, idWarn, warn[0].ID)

	require.Len(t, am.List(AlertFilter{Resolved: utils.BoolPtr(true)}), 0)
}

func TestAlertManager_NoDeduplication(t *testing.T) {
	am := NewAlertManager(zap.NewNop().Sugar(), nil)

	first := am.Raise(model.Warning, "High CPU Usage", "x", nil)
	second := am.Raise(model.Warning, "High CPU Usage", "x", nil)

	require.NotEqual(t, first, second)
	require.Len(t, am.List(AlertFilter{}), 2)
}

func TestAlertManager_Resolve(t *testing.T) {
	am := NewAlertManager(zap.NewNop().Sugar(), nil)
	var changes []model.SystemAlert
	am.onChange = func(a model.SystemAlert) { changes = append(changes, a) }

	id := am.Raise(model.Warning, "Slow API Response", "", nil)
	a, ok := am.Get(id)
	require.True(t, ok)
	require.False(t, a.Resolved)
	require.Nil(t, a.ResolvedAt)

	require.True(t, am.Resolve(id))
	a, _ = am.Get(id)
	require.True(t, a.Resolved)
	require.NotNil(t, a.ResolvedAt)
	firstAt := *a.ResolvedAt

	require.True(t, am.Resolve(id))
	a, _ = am.Get(id)
	require.Equal(t, firstAt, *a.ResolvedAt)

	// raise + first resolve; the repeat is a no-op
	require.Len(t, changes, 2)

	require.Empty(t, am.List(AlertFilter{Resolved: utils.BoolPtr(false)}))
	require.Len(t, am.List(AlertFilter{Resolved: utils.BoolPtr(true)}), 1)

	total, active := am.Counts()
	require.Equal(t, 1, total)
	require.Equal(t, 0, active)
}

func TestAlertManager_ResolveUnknown(t *testing.T) {
	am := NewAlertManager(zap.NewNop().Sugar(), nil)
	id := am.Raise(model.Info, "x", "", nil)

	require.False(t, am.Resolve("alert_missing"))

	a, _ := am.Get(id)
	require.False(t, a.Resolved)
	_, ok := am.Get("alert_missing")
	require.False(t, ok)
}

func TestAlertManager_CriticalNotifies(t *testing.T) {
	n := &fakeNotifier{err: errBoom}
	am := NewAlertManager(zap.NewNop().Sugar(), n)

	am.Raise(model.Warning, "w", "", nil)
	id := am.Raise(model.Critical, "Critical Error: payment_error", "", nil)
	am.Wait()

	got := n.Alerts()
	require.Len(t, got, 1)
	require.Equal(t, id, got[0].ID)
}

func TestAlertManager_NotifierPanicIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	am := NewAlertManager(zap.New(core).Sugar(), panicNotifier{})

	require.NotPanics(t, func() {
		am.Raise(model.Critical, "boom", "", nil)
		am.Wait()
	})
	require.Equal(t, 1, logs.FilterMessage("critical alert notifier panicked").Len())
}

func TestAlertManager_LogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	am := NewAlertManager(zap.New(core).Sugar(), nil)

	am.Raise(model.Info, "i", "", nil)
	am.Raise(model.Warning, "w", "", nil)
	am.Raise(model.ErrorLvl, "e", "", nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Contains(t, entries[1].Message, "ALERT [warning] w")
}

package monitor

import (
	"context"
	"testing"

	"github.com/fitcoach/perfmon/model"
	"github.com/fitcoach/perfmon/storage"
	"github.com/fitcoach/perfmon/storage/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPersister_DropsWhenFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	store.EXPECT().SaveMetric(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	core, logs := observer.New(zapcore.WarnLevel)
	p := newPersister(store, 2, zap.New(core).Sugar())

	for i := 0; i < 3; i++ {
		pm := model.PerformanceMetric{Name: "m"}
		p.enqueue(persistJob{kind: "metric", id: pm.Name,
			save: func(ctx context.Context, s storage.Storage) error { return s.SaveMetric(ctx, pm) }})
	}
	require.Equal(t, 2, p.pending())
	require.Equal(t, 1, logs.FilterMessage("persistence queue full, record dropped").Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.run(ctx)
	require.Zero(t, p.pending())
}

func TestPersister_Nil(t *testing.T) {
	var p *persister
	require.NotPanics(t, func() { p.enqueue(persistJob{}) })
	require.Zero(t, p.pending())
}

func TestPersister_ClosedDropsSilently(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)

	core, logs := observer.New(zapcore.WarnLevel)
	p := newPersister(store, 1, zap.New(core).Sugar())
	p.setClosed(true)

	for i := 0; i < 5; i++ {
		p.enqueue(persistJob{kind: "metric", id: "m",
			save: func(ctx context.Context, s storage.Storage) error { return s.SaveMetric(ctx, model.PerformanceMetric{}) }})
	}
	require.Zero(t, p.pending())
	require.Zero(t, logs.Len())

	p.setClosed(false)
	p.enqueue(persistJob{kind: "metric", id: "m"})
	require.Equal(t, 1, p.pending())
}

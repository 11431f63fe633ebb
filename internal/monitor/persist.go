package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fitcoach/perfmon/internal/errs"
	"github.com/fitcoach/perfmon/storage"
	"go.uber.org/zap"
)

type persistJob struct {
	kind string
	id   string
	save func(ctx context.Context, s storage.Storage) error
}

// persister writes records to the storage collaborator off the hot path.
// The queue is bounded; a full queue drops the record with a log line.
// Once closed, records are dropped silently until it is reopened.
type persister struct {
	store   storage.Storage
	jobs    chan persistJob
	timeout time.Duration
	logger  *zap.SugaredLogger
	closed  atomic.Bool
}

func newPersister(store storage.Storage, size int, logger *zap.SugaredLogger) *persister {
	if size < 1 {
		size = 1
	}
	return &persister{
		store:   store,
		jobs:    make(chan persistJob, size),
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

func (p *persister) enqueue(job persistJob) {
	if p == nil || p.closed.Load() {
		return
	}
	select {
	case p.jobs <- job:
	default:
		p.logger.Warnw("persistence queue full, record dropped", "kind", job.kind, "id", job.id, "error", errs.ErrQueueFull)
	}
}

// setClosed switches silent dropping on or off.
func (p *persister) setClosed(v bool) {
	if p != nil {
		p.closed.Store(v)
	}
}

// run consumes jobs until ctx is done, then flushes whatever is still queued.
func (p *persister) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case job := <-p.jobs:
			p.save(ctx, job)
		}
	}
}

func (p *persister) drain() {
	ctx := context.Background()
	for {
		select {
		case job := <-p.jobs:
			p.save(ctx, job)
		default:
			return
		}
	}
}

func (p *persister) save(ctx context.Context, job persistJob) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := job.save(ctx, p.store); err != nil {
		p.logger.Errorw("failed to persist record", "kind", job.kind, "id", job.id, "error", err)
	}
}

func (p *persister) pending() int {
	if p == nil {
		return 0
	}
	return len(p.jobs)
}

// Package inmemory holds the bounded in-process metric buffer.
package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/internal/ring"
	"github.com/fitcoach/perfmon/model"
)

// DefaultCapacity is the sample count kept when no capacity is configured.
const DefaultCapacity = 10000

// MetricStore is a time-ordered ring buffer of performance samples.
// It never holds more than its capacity; the oldest sample is evicted first.
type MetricStore struct {
	buf *ring.Buffer[model.PerformanceMetric]
	mu  sync.RWMutex
}

func NewMetricStore(capacity int) *MetricStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MetricStore{buf: ring.New[model.PerformanceMetric](capacity)}
}

// Record appends m.
func (store *MetricStore) Record(m model.PerformanceMetric) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.buf.Push(m)
}

// Query returns samples with Timestamp >= since in insertion order. An empty
// kind matches every sample.
func (store *MetricStore) Query(since time.Time, kind model.MetricKind) []model.PerformanceMetric {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var out []model.PerformanceMetric
	store.buf.Do(func(m model.PerformanceMetric) {
		if m.Timestamp.Before(since) {
			return
		}
		if kind != "" && m.Kind != kind {
			return
		}
		out = append(out, m)
	})
	return out
}

func (store *MetricStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.buf.Len()
}

func (store *MetricStore) Cap() int {
	return store.buf.Cap()
}

// Clear empties the store and returns the number of dropped samples.
func (store *MetricStore) Clear() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.buf.Clear()
}

// SaveToFile writes every retained sample to filePath as JSON.
func (store *MetricStore) SaveToFile(ctx context.Context, filePath string) error {
	store.mu.RLock()
	metrics := store.buf.Slice()
	store.mu.RUnlock()

	if len(metrics) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create dir: %w", err)
		}
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// LoadFromFile appends samples saved by SaveToFile. A missing file is not an
// error.
func (store *MetricStore) LoadFromFile(ctx context.Context, filePath string) (int, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	var metrics []model.PerformanceMetric
	if err := json.Unmarshal(data, &metrics); err != nil {
		return 0, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, m := range metrics {
		store.buf.Push(m)
	}
	return len(metrics), nil
}

package monitor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/internal/ring"
	"github.com/fitcoach/perfmon/model"
)

type durationSample struct {
	seconds float64
	at      time.Time
}

// secondBucket counts requests that arrived during one unix second.
type secondBucket struct {
	sec int64
	n   int
}

// countHorizon is how many one-second buckets are kept for CountSince: the
// whole ErrorRateWindow plus the current second.
const countHorizon = int(ErrorRateWindow/time.Second) + 1

type endpointWindow struct {
	total   int64
	samples *ring.Buffer[model.RequestSample]
}

// RequestTracker keeps a bounded window of recent request durations, a
// bounded ring of samples per method:endpoint key and per-second request
// counts over ErrorRateWindow.
type RequestTracker struct {
	mu        sync.RWMutex
	recent    *ring.Buffer[durationSample]
	perSecond []secondBucket
	endpoints map[string]*endpointWindow
	perKey    int
	started   time.Time

	threshold float64
	record    func(model.PerformanceMetric)
	alerts    *AlertManager
	now       func() time.Time
}

// NewRequestTracker builds a tracker. record receives one response_time
// metric per tracked request; threshold is the slow-request limit in seconds.
func NewRequestTracker(window, perEndpoint int, threshold float64,
	record func(model.PerformanceMetric), alerts *AlertManager) *RequestTracker {
	return &RequestTracker{
		recent:    ring.New[durationSample](window),
		perSecond: make([]secondBucket, countHorizon),
		endpoints: make(map[string]*endpointWindow),
		perKey:    perEndpoint,
		started:   time.Now(),
		threshold: threshold,
		record:    record,
		alerts:    alerts,
		now:       time.Now,
	}
}

func endpointKey(method, endpoint string) string {
	return strings.ToUpper(method) + ":" + endpoint
}

// Track records one API call. duration is in seconds.
func (t *RequestTracker) Track(method, endpoint string, duration float64, status int) {
	now := t.now()
	key := endpointKey(method, endpoint)

	t.mu.Lock()
	t.recent.Push(durationSample{seconds: duration, at: now})
	t.countLocked(now)
	w, ok := t.endpoints[key]
	if !ok {
		w = &endpointWindow{samples: ring.New[model.RequestSample](t.perKey)}
		t.endpoints[key] = w
	}
	w.total++
	w.samples.Push(model.RequestSample{Duration: duration, StatusCode: status, Timestamp: now})
	t.mu.Unlock()

	if t.record != nil {
		t.record(model.PerformanceMetric{
			Name:      "api_response_time",
			Kind:      model.ResponseTime,
			Value:     duration,
			Timestamp: now,
			Labels: map[string]string{
				"method":      method,
				"endpoint":    endpoint,
				"status_code": strconv.Itoa(status),
			},
		})
	}

	limit := t.threshold
	if duration > limit {
		t.alerts.Raise(model.Warning,
			"Slow API Response",
			fmt.Sprintf("API %s %s took %.2fs (threshold: %gs)", method, endpoint, duration, limit),
			map[string]any{"method": method, "endpoint": endpoint, "duration": duration},
		)
	}
}

func (t *RequestTracker) countLocked(at time.Time) {
	sec := at.Unix()
	b := &t.perSecond[int(sec%int64(countHorizon))]
	if b.sec != sec {
		b.sec = sec
		b.n = 0
	}
	b.n++
}

// CountSince returns how many requests were tracked from the second
// containing since up to now. The count is independent of the duration
// window size; since is clamped to ErrorRateWindow before now.
func (t *RequestTracker) CountSince(since time.Time) int {
	from := since.Unix()
	to := t.now().Unix()
	if floor := to - int64(countHorizon) + 1; from < floor {
		from = floor
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, b := range t.perSecond {
		if b.n > 0 && b.sec >= from && b.sec <= to {
			n += b.n
		}
	}
	return n
}

// EndpointStats aggregates each key whose name contains filter. The last
// ten samples are included per key.
func (t *RequestTracker) EndpointStats(filter string) map[string]model.EndpointStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]model.EndpointStats)
	for key, w := range t.endpoints {
		if filter != "" && !strings.Contains(key, filter) {
			continue
		}
		samples := w.samples.Slice()
		if len(samples) == 0 {
			continue
		}

		st := model.EndpointStats{
			TotalRequests: w.total,
			MinDuration:   math.Inf(1),
		}
		var sum float64
		var ok int
		for _, s := range samples {
			sum += s.Duration
			st.MinDuration = min(st.MinDuration, s.Duration)
			st.MaxDuration = max(st.MaxDuration, s.Duration)
			if s.StatusCode >= 200 && s.StatusCode < 300 {
				ok++
			}
		}
		st.AverageDuration = sum / float64(len(samples))
		st.SuccessRate = float64(ok) / float64(len(samples)) * 100
		st.RecentRequests = w.samples.Last(10)
		out[key] = st
	}
	return out
}

// Throughput returns requests per second over the recent window.
func (t *RequestTracker) Throughput() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.recent.Len()
	if n == 0 {
		return 0
	}
	var first time.Time
	t.recent.Do(func(s durationSample) {
		if first.IsZero() {
			first = s.at
		}
	})
	span := t.now().Sub(first).Seconds()
	if span < 1 {
		span = 1
	}
	return float64(n) / span
}

// Len returns the number of durations in the recent window.
func (t *RequestTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recent.Len()
}

// Reset drops every sample and returns how many recent durations were held.
func (t *RequestTracker) Reset() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.recent.Clear()
	t.endpoints = make(map[string]*endpointWindow)
	clear(t.perSecond)
	return n
}

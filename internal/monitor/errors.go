package monitor

import (
	"maps"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fitcoach/perfmon/model"
	"github.com/google/uuid"
)

// ErrorRegistry keeps every tracked error for the life of the process.
// Ids are UUIDv7, so they sort in creation order.
type ErrorRegistry struct {
	mu     sync.RWMutex
	events map[string]*model.ErrorEvent
	order  []string
	counts map[string]int64
	now    func() time.Time
}

func NewErrorRegistry() *ErrorRegistry {
	return &ErrorRegistry{
		events: make(map[string]*model.ErrorEvent),
		counts: make(map[string]int64),
		now:    time.Now,
	}
}

// Record stores a new error event and bumps the per-type counter.
func (r *ErrorRegistry) Record(errType, message, userID string, details map[string]any) model.ErrorEvent {
	ev := model.ErrorEvent{
		ID:         "error_" + uuid.Must(uuid.NewV7()).String(),
		Type:       errType,
		Message:    message,
		StackTrace: callerStack(3),
		Timestamp:  r.now(),
		UserID:     userID,
		Context:    maps.Clone(details),
	}
	if ev.Context == nil {
		ev.Context = map[string]any{}
	}
	if sid, ok := ev.Context["session_id"].(string); ok {
		ev.SessionID = sid
	}

	r.mu.Lock()
	stored := ev
	r.events[ev.ID] = &stored
	r.order = append(r.order, ev.ID)
	r.counts[errType]++
	r.mu.Unlock()

	return ev
}

func (r *ErrorRegistry) Get(id string) (model.ErrorEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return model.ErrorEvent{}, false
	}
	return *ev, true
}

// Query returns events at or after since in creation order. An empty errType
// matches every event.
func (r *ErrorRegistry) Query(since time.Time, errType string) []model.ErrorEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ErrorEvent
	for _, id := range r.order {
		ev := r.events[id]
		if ev.Timestamp.Before(since) {
			continue
		}
		if errType != "" && ev.Type != errType {
			continue
		}
		out = append(out, *ev)
	}
	return out
}

// CountSince returns how many events happened at or after since.
func (r *ErrorRegistry) CountSince(since time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for i := len(r.order) - 1; i >= 0; i-- {
		if r.events[r.order[i]].Timestamp.Before(since) {
			break
		}
		n++
	}
	return n
}

// Resolve marks the event resolved; it returns false for unknown ids.
func (r *ErrorRegistry) Resolve(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[id]
	if !ok {
		return false
	}
	ev.Resolved = true
	return true
}

// Counts returns the running per-type totals.
func (r *ErrorRegistry) Counts() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.counts)
}

func (r *ErrorRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func callerStack(skip int) string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		f, more := frames.Next()
		b.WriteString(f.Function)
		b.WriteString("\n\t")
		b.WriteString(f.File)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(f.Line))
		b.WriteByte('\n')
		if !more {
			break
		}
	}
	return b.String()
}

package detect

import (
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Log is an append-only record of detection events bounded by count and age.
// It backs the reporting endpoints; it is not durable storage.
type Log struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	entries  []domain.DetectionEvent
	now      func() time.Time
}

// NewLog creates a log retaining at most capacity events no older than ttl.
func NewLog(capacity int, ttl time.Duration) *Log {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Log{
		capacity: capacity,
		ttl:      ttl,
		entries:  make([]domain.DetectionEvent, 0, capacity),
		now:      time.Now,
	}
}

// OnDetection appends the event. Satisfies the monitor's sink contract so
// the log can subscribe alongside the dispatcher and aggregator.
func (l *Log) OnDetection(ev domain.DetectionEvent) {
	l.Append(ev)
}

// Append records an event, dropping the oldest entry once at capacity.
func (l *Log) Append(ev domain.DetectionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = ev
		return
	}
	l.entries = append(l.entries, ev)
}

// Recent returns the retained events that are still within the TTL,
// oldest first.
func (l *Log) Recent() []domain.DetectionEvent {
	cutoff := l.now().Add(-l.ttl)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.DetectionEvent, 0, len(l.entries))
	for _, ev := range l.entries {
		if ev.DetectedAt.Before(cutoff) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Cleanup drops expired entries. Called periodically by the engine.
func (l *Log) Cleanup() {
	cutoff := l.now().Add(-l.ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, ev := range l.entries {
		if ev.DetectedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, ev)
	}
	l.entries = kept
}

// Len returns the number of retained entries, expired or not.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

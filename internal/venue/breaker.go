package venue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// breakerEntry is the per-venue state. Zero value means Closed.
type breakerEntry struct {
	state    domain.BreakerState
	openedAt time.Time
}

// Breaker tracks per-venue availability. It opens on severe health samples
// and recovers unconditionally once the configured duration has elapsed;
// there is no half-open probe before reopening.
//
// Only the breaker mutates its state; readers race safely with the timed
// recovery because expiry is evaluated against the injected clock on read.
type Breaker struct {
	mu       sync.RWMutex
	entries  map[string]*breakerEntry
	recovery time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewBreaker creates a breaker controller. recovery <= 0 falls back to 300s.
func NewBreaker(recovery time.Duration) *Breaker {
	if recovery <= 0 {
		recovery = 300 * time.Second
	}
	return &Breaker{
		entries:  make(map[string]*breakerEntry),
		recovery: recovery,
		now:      time.Now,
		log:      slog.Default(),
	}
}

// SetClock replaces the time source. Test hook.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Observe feeds a classified health sample into the controller. It returns
// true when the sample flipped the venue from Closed to Open.
func (b *Breaker) Observe(venue string, severity domain.Severity) bool {
	if severity != domain.SeverityHigh && severity != domain.SeverityCritical {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.entry(venue)
	if entry.state == domain.BreakerOpen && !b.expired(entry) {
		return false
	}

	entry.state = domain.BreakerOpen
	entry.openedAt = b.now()
	b.log.Warn("Circuit breaker opened", "venue", venue, "severity", severity, "recovery", b.recovery)
	return true
}

// Available reports whether the venue is usable. An Open venue whose
// recovery window has elapsed reads as available and is flipped back to
// Closed in place.
func (b *Breaker) Available(venue string) bool {
	return b.State(venue) == domain.BreakerClosed
}

// State returns the venue's current breaker state, applying timed recovery.
func (b *Breaker) State(venue string) domain.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[venue]
	if !ok {
		return domain.BreakerClosed
	}
	if entry.state == domain.BreakerOpen && b.expired(entry) {
		entry.state = domain.BreakerClosed
		entry.openedAt = time.Time{}
		b.log.Info("Circuit breaker recovered", "venue", venue)
	}
	return entry.state
}

// OpenVenues returns the venues currently Open, after applying recovery.
func (b *Breaker) OpenVenues() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var open []string
	for name, entry := range b.entries {
		if entry.state != domain.BreakerOpen {
			continue
		}
		if b.expired(entry) {
			entry.state = domain.BreakerClosed
			entry.openedAt = time.Time{}
			continue
		}
		open = append(open, name)
	}
	return open
}

func (b *Breaker) entry(venue string) *breakerEntry {
	entry, ok := b.entries[venue]
	if !ok {
		entry = &breakerEntry{state: domain.BreakerClosed}
		b.entries[venue] = entry
	}
	return entry
}

func (b *Breaker) expired(entry *breakerEntry) bool {
	return b.now().Sub(entry.openedAt) >= b.recovery
}

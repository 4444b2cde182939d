package mempool

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// ErrUnknownChain is returned when subscribing to a chain the stream does
// not carry.
var ErrUnknownChain = errors.New("unknown chain")

// Inspector matches a newly recorded transaction against adversarial shapes.
type Inspector interface {
	Inspect(tx domain.ObservedTransaction, snapshot []domain.ObservedTransaction) []domain.DetectionEvent
}

// EventSink consumes detection events. Implementations must not block the
// caller; slow consumers buffer or drop internally.
type EventSink interface {
	OnDetection(ev domain.DetectionEvent)
}

// Monitor consumes one chain's pending-transaction stream, records each
// envelope into the chain's cache and runs detection inline.
type Monitor struct {
	chainID   string
	stream    Stream
	cache     *Cache
	inspector Inspector
	sinks     []EventSink
	log       *slog.Logger

	resubscribeDelay time.Duration
}

// NewMonitor creates a per-chain monitor. The cache is owned by this monitor;
// no other goroutine may mutate it.
func NewMonitor(chainID string, stream Stream, cache *Cache, inspector Inspector, sinks ...EventSink) *Monitor {
	return &Monitor{
		chainID:          chainID,
		stream:           stream,
		cache:            cache,
		inspector:        inspector,
		sinks:            sinks,
		log:              slog.Default().With("chain", chainID),
		resubscribeDelay: time.Second,
	}
}

// Run consumes the stream until ctx is cancelled. A closed subscription is
// re-established after a short delay; an unknown chain ends the monitor.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		ch, err := m.stream.Subscribe(ctx, m.chainID)
		if err != nil {
			if errors.Is(err, ErrUnknownChain) {
				return err
			}
			m.log.Warn("Subscription failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(m.resubscribeDelay):
				continue
			}
		}

		if done := m.consume(ctx, ch); done {
			return nil
		}

		m.log.Debug("Stream ended, resubscribing")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.resubscribeDelay):
		}
	}
}

// consume drains one subscription. Returns true when ctx was cancelled.
func (m *Monitor) consume(ctx context.Context, ch <-chan domain.ObservedTransaction) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case tx, ok := <-ch:
			if !ok {
				return false
			}
			m.observe(tx)
		}
	}
}

// observe records one transaction and runs detection on the updated cache.
func (m *Monitor) observe(tx domain.ObservedTransaction) {
	if tx.IsEmpty() {
		// Transaction was mined or evicted before details arrived.
		// Soft miss: skip, no retry.
		m.log.Debug("Skipping empty transaction envelope")
		return
	}
	if tx.ChainID == "" {
		tx.ChainID = m.chainID
	}
	if tx.ObservedAt.IsZero() {
		tx.ObservedAt = time.Now()
	}

	m.cache.Record(tx)

	events := m.inspector.Inspect(tx, m.cache.Snapshot())
	for _, ev := range events {
		m.log.Info("Attack pattern detected",
			"kind", ev.Kind,
			"severity", ev.Severity,
			"victim", ev.Victim,
			"attacker", ev.Attacker,
			"confidence", ev.Confidence,
		)
		for _, sink := range m.sinks {
			sink.OnDetection(ev)
		}
	}
}

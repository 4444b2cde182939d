package mempool

import (
	"context"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Stream yields pending-transaction envelopes for a chain as they are
// observed. Delivery is best-effort; transactions may be silently missed.
type Stream interface {
	// Subscribe returns a channel of observed transactions for the chain.
	// The channel is closed when the subscription ends or ctx is cancelled.
	Subscribe(ctx context.Context, chainID string) (<-chan domain.ObservedTransaction, error)
}

// ChannelStream is a Stream backed by in-process channels. Used by tests and
// by adapters that push envelopes from an external feed.
type ChannelStream struct {
	feeds map[string]chan domain.ObservedTransaction
}

// NewChannelStream creates a channel-backed stream for the given chains.
func NewChannelStream(chainIDs ...string) *ChannelStream {
	feeds := make(map[string]chan domain.ObservedTransaction, len(chainIDs))
	for _, id := range chainIDs {
		feeds[id] = make(chan domain.ObservedTransaction, 64)
	}
	return &ChannelStream{feeds: feeds}
}

// Subscribe implements Stream.
func (s *ChannelStream) Subscribe(ctx context.Context, chainID string) (<-chan domain.ObservedTransaction, error) {
	ch, ok := s.feeds[chainID]
	if !ok {
		return nil, ErrUnknownChain
	}
	return ch, nil
}

// Publish pushes a transaction into the chain's feed. Blocks if the feed
// buffer is full.
func (s *ChannelStream) Publish(tx domain.ObservedTransaction) {
	if ch, ok := s.feeds[tx.ChainID]; ok {
		ch <- tx
	}
}

// Close closes all feeds, ending every subscription.
func (s *ChannelStream) Close() {
	for _, ch := range s.feeds {
		close(ch)
	}
}

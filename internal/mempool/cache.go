package mempool

import (
	"github.com/vietddude/sentinel/internal/core/domain"
)

// Cache is a bounded FIFO of recently observed pending transactions for a
// single chain. It is mutated only by the chain's monitor goroutine; readers
// work on snapshot copies.
type Cache struct {
	chainID  string
	capacity int
	entries  []domain.ObservedTransaction
}

// NewCache creates a cache for one chain. Capacity must be positive;
// non-positive values fall back to the default of 1000.
func NewCache(chainID string, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Cache{
		chainID:  chainID,
		capacity: capacity,
		entries:  make([]domain.ObservedTransaction, 0, capacity),
	}
}

// Record appends a transaction, evicting the oldest entry once at capacity.
func (c *Cache) Record(tx domain.ObservedTransaction) {
	if len(c.entries) >= c.capacity {
		copy(c.entries, c.entries[1:])
		c.entries[len(c.entries)-1] = tx
		return
	}
	c.entries = append(c.entries, tx)
}

// Snapshot returns a copy of the current entries in insertion order.
func (c *Cache) Snapshot() []domain.ObservedTransaction {
	out := make([]domain.ObservedTransaction, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// ChainID returns the chain this cache belongs to.
func (c *Cache) ChainID() string {
	return c.chainID
}

package mempool

import (
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

func makeTx(hash string, gasPrice uint64) domain.ObservedTransaction {
	return domain.ObservedTransaction{
		Hash:       hash,
		ChainID:    "1",
		From:       "0xsender",
		To:         "0xcontract",
		GasPrice:   gasPrice,
		ObservedAt: time.Now(),
	}
}

func TestCacheBound(t *testing.T) {
	cache := NewCache("1", 10)

	for i := 0; i < 100; i++ {
		cache.Record(makeTx(fmt.Sprintf("0x%03d", i), 20))
		if cache.Len() > 10 {
			t.Fatalf("cache exceeded capacity: %d", cache.Len())
		}
	}

	if cache.Len() != 10 {
		t.Errorf("Len() = %d, want 10", cache.Len())
	}

	// Retained entries are the most recent 10, in insertion order
	snap := cache.Snapshot()
	for i, tx := range snap {
		want := fmt.Sprintf("0x%03d", 90+i)
		if tx.Hash != want {
			t.Errorf("snapshot[%d].Hash = %s, want %s", i, tx.Hash, want)
		}
	}
}

func TestCacheSnapshotIsCopy(t *testing.T) {
	cache := NewCache("1", 5)
	cache.Record(makeTx("0xaaa", 20))

	snap := cache.Snapshot()
	snap[0].Hash = "mutated"

	if got := cache.Snapshot()[0].Hash; got != "0xaaa" {
		t.Errorf("cache entry mutated through snapshot: %s", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	cache := NewCache("1", 0)
	for i := 0; i < 1001; i++ {
		cache.Record(makeTx(fmt.Sprintf("0x%04d", i), 20))
	}
	if cache.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", cache.Len())
	}
}

package mitigate

import (
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/domain"
)

const bundleValidity = 60 * time.Second

// RelaySelector picks a private relay for a chain by fixed preference order:
// the relay marked primary wins on Ethereum mainnet when it serves the
// chain and is enabled; otherwise the first enabled relay declared for the
// chain is used.
type RelaySelector struct {
	relays []config.RelayConfig
}

// NewRelaySelector creates a selector over the configured relays.
func NewRelaySelector(relays []config.RelayConfig) *RelaySelector {
	return &RelaySelector{relays: relays}
}

// Select returns the preferred relay for a chain, or false when no enabled
// relay serves it.
func (s *RelaySelector) Select(chainID string) (config.RelayConfig, bool) {
	if chainID == domain.ChainIDEthereum {
		for _, r := range s.relays {
			if r.Primary && r.Enabled && servesChain(r, chainID) {
				return r, true
			}
		}
	}
	for _, r := range s.relays {
		if r.Enabled && servesChain(r, chainID) {
			return r, true
		}
	}
	return config.RelayConfig{}, false
}

func servesChain(r config.RelayConfig, chainID string) bool {
	for _, c := range r.Chains {
		if c == chainID {
			return true
		}
	}
	return false
}

// BuildBundle constructs a bundle referencing the victim transaction,
// targeting the next block with a 60-second validity window.
func BuildBundle(ev domain.DetectionEvent, currentBlock uint64) domain.Bundle {
	now := time.Now()
	return domain.Bundle{
		ID:          uuid.NewString(),
		ChainID:     ev.ChainID,
		TxHashes:    []string{ev.VictimHash},
		TargetBlock: currentBlock + 1,
		ValidUntil:  now.Add(bundleValidity),
		CreatedAt:   now,
	}
}

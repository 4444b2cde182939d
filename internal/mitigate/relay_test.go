package mitigate

import (
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/domain"
)

func TestRelaySelectorSelect(t *testing.T) {
	relays := []config.RelayConfig{
		{Name: "bloxroute", URL: "https://mev.api.blxrbdn.com", Chains: []string{"1", "137"}, Enabled: true},
		{Name: "flashbots", URL: "https://relay.flashbots.net", Chains: []string{"1"}, Primary: true, Enabled: true},
		{Name: "eden", URL: "https://api.edennetwork.io", Chains: []string{"56"}, Enabled: false},
	}

	tests := []struct {
		name    string
		chainID string
		want    string
		found   bool
	}{
		{
			name:    "primary wins on ethereum mainnet",
			chainID: "1",
			want:    "flashbots",
			found:   true,
		},
		{
			name:    "other chains use declaration order",
			chainID: "137",
			want:    "bloxroute",
			found:   true,
		},
		{
			name:    "disabled relay is skipped",
			chainID: "56",
			found:   false,
		},
		{
			name:    "chain nobody serves",
			chainID: "42161",
			found:   false,
		},
	}

	s := NewRelaySelector(relays)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay, ok := s.Select(tt.chainID)
			if ok != tt.found {
				t.Fatalf("Select(%q) ok = %v, want %v", tt.chainID, ok, tt.found)
			}
			if ok && relay.Name != tt.want {
				t.Errorf("Select(%q) = %s, want %s", tt.chainID, relay.Name, tt.want)
			}
		})
	}
}

func TestRelaySelectorPrimaryMustServeChain(t *testing.T) {
	// A primary relay that does not serve mainnet must not be picked for it.
	s := NewRelaySelector([]config.RelayConfig{
		{Name: "polygon-only", URL: "https://example.com", Chains: []string{"137"}, Primary: true, Enabled: true},
		{Name: "fallback", URL: "https://example.org", Chains: []string{"1"}, Enabled: true},
	})

	relay, ok := s.Select(domain.ChainIDEthereum)
	if !ok || relay.Name != "fallback" {
		t.Errorf("Select(1) = %v %v, want fallback", relay.Name, ok)
	}
}

func TestBuildBundle(t *testing.T) {
	ev := domain.DetectionEvent{
		ID:         "det-9",
		ChainID:    "1",
		Kind:       domain.AttackSandwich,
		VictimHash: "0xbbb",
	}

	before := time.Now()
	b := BuildBundle(ev, 19000000)
	after := time.Now()

	if b.ID == "" {
		t.Error("bundle ID is empty")
	}
	if b.ChainID != "1" {
		t.Errorf("ChainID = %s, want 1", b.ChainID)
	}
	if b.TargetBlock != 19000001 {
		t.Errorf("TargetBlock = %d, want current block + 1", b.TargetBlock)
	}
	if len(b.TxHashes) != 1 || b.TxHashes[0] != "0xbbb" {
		t.Errorf("TxHashes = %v, want the victim hash", b.TxHashes)
	}

	validity := b.ValidUntil.Sub(b.CreatedAt)
	if validity != 60*time.Second {
		t.Errorf("validity window = %v, want 60s", validity)
	}
	if b.CreatedAt.Before(before) || b.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v outside [%v, %v]", b.CreatedAt, before, after)
	}
}

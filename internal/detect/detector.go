package detect

import (
	"bytes"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Config tunes the pattern matching rules.
type Config struct {
	FrontRunning      bool
	Sandwich          bool
	CriticalGasDelta  uint64 // gwei differential that escalates to critical
	SandwichWindow    int    // trailing entries scanned for triples
	SandwichMaxSpread time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		FrontRunning:      true,
		Sandwich:          true,
		CriticalGasDelta:  50,
		SandwichWindow:    50,
		SandwichMaxSpread: 10 * time.Second,
	}
}

// Detector matches newly observed transactions against known adversarial
// shapes. It is stateless and safe to share across chain monitors; all state
// lives in the snapshots it is handed.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector.
func NewDetector(cfg Config) *Detector {
	if cfg.CriticalGasDelta == 0 {
		cfg.CriticalGasDelta = 50
	}
	if cfg.SandwichWindow == 0 {
		cfg.SandwichWindow = 50
	}
	if cfg.SandwichMaxSpread == 0 {
		cfg.SandwichMaxSpread = 10 * time.Second
	}
	return &Detector{cfg: cfg}
}

// Inspect runs all enabled rules for one newly observed transaction.
// The snapshot must already include tx as its newest entry. Detection is
// best-effort and order-sensitive: it never revisits past classifications.
func (d *Detector) Inspect(tx domain.ObservedTransaction, snapshot []domain.ObservedTransaction) []domain.DetectionEvent {
	var events []domain.DetectionEvent

	if d.cfg.FrontRunning {
		if ev, ok := d.matchFrontRunning(tx, snapshot); ok {
			events = append(events, ev)
		}
	}
	if d.cfg.Sandwich {
		if ev, ok := d.matchSandwich(tx, snapshot); ok {
			events = append(events, ev)
		}
	}

	return events
}

// matchFrontRunning looks for a cached transaction targeting the same
// contract and function as tx at a different gas price. The higher-priced
// side is the attacker; identical gas prices never match.
func (d *Detector) matchFrontRunning(tx domain.ObservedTransaction, snapshot []domain.ObservedTransaction) (domain.DetectionEvent, bool) {
	selector := tx.Selector()
	if selector == nil {
		return domain.DetectionEvent{}, false
	}

	for _, other := range snapshot {
		if other.Hash == tx.Hash || other.To != tx.To {
			continue
		}
		if other.GasPrice == tx.GasPrice {
			continue
		}
		if !bytes.Equal(other.Selector(), selector) {
			continue
		}

		attacker, victim := other, tx
		if tx.GasPrice > other.GasPrice {
			attacker, victim = tx, other
		}
		delta := attacker.GasPrice - victim.GasPrice

		severity := domain.SeverityMedium
		if delta > d.cfg.CriticalGasDelta {
			severity = domain.SeverityCritical
		}

		value := victim.Value - attacker.Value
		if value < 0 {
			value = -value
		}

		return domain.DetectionEvent{
			ID:              uuid.NewString(),
			Kind:            domain.AttackFrontRunning,
			Severity:        severity,
			ChainID:         tx.ChainID,
			VictimHash:      victim.Hash,
			Attacker:        attacker.From,
			Victim:          victim.From,
			EstimatedProfit: value*0.01 + float64(delta)*0.00001,
			GasPriceDelta:   delta,
			Confidence:      85,
			Mitigation:      "reroute_private_relay",
			DetectedAt:      tx.ObservedAt,
		}, true
	}

	return domain.DetectionEvent{}, false
}

// matchSandwich checks whether tx closes a bracket: the same sender on both
// sides of a distinct victim, all hitting the same contract within the
// configured spread. Only triples ending at tx are considered, so a given
// bracket is reported exactly once.
func (d *Detector) matchSandwich(tx domain.ObservedTransaction, snapshot []domain.ObservedTransaction) (domain.DetectionEvent, bool) {
	window := snapshot
	if len(window) > d.cfg.SandwichWindow {
		window = window[len(window)-d.cfg.SandwichWindow:]
	}
	if len(window) < 3 {
		return domain.DetectionEvent{}, false
	}

	for i := 0; i+2 < len(window); i++ {
		prev, mid, next := window[i], window[i+1], window[i+2]
		if next.Hash != tx.Hash {
			continue
		}
		if prev.From != next.From || mid.From == prev.From {
			continue
		}
		if prev.To != mid.To || mid.To != next.To {
			continue
		}
		if !mid.ObservedAt.After(prev.ObservedAt) || !next.ObservedAt.After(mid.ObservedAt) {
			continue
		}
		if next.ObservedAt.Sub(prev.ObservedAt) >= d.cfg.SandwichMaxSpread {
			continue
		}

		return domain.DetectionEvent{
			ID:              uuid.NewString(),
			Kind:            domain.AttackSandwich,
			Severity:        domain.SeverityHigh,
			ChainID:         tx.ChainID,
			VictimHash:      mid.Hash,
			Attacker:        prev.From,
			Victim:          mid.From,
			EstimatedProfit: 0.005 * (prev.Value + mid.Value + next.Value),
			Confidence:      90,
			Mitigation:      "bundle_submission",
			DetectedAt:      tx.ObservedAt,
		}, true
	}

	return domain.DetectionEvent{}, false
}

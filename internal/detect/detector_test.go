package detect

import (
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

var swapSelector = []byte{0x38, 0xed, 0x17, 0x39}

func tx(hash, from, to string, gasPrice uint64, data []byte, at time.Time) domain.ObservedTransaction {
	return domain.ObservedTransaction{
		Hash:       hash,
		ChainID:    "1",
		From:       from,
		To:         to,
		Value:      1,
		GasPrice:   gasPrice,
		Data:       data,
		ObservedAt: at,
	}
}

func TestFrontRunning(t *testing.T) {
	base := time.Now()

	tests := []struct {
		name         string
		victim       domain.ObservedTransaction
		attacker     domain.ObservedTransaction
		wantMatch    bool
		wantSeverity domain.Severity
		wantDelta    uint64
	}{
		{
			name:         "critical when delta exceeds 50 gwei",
			victim:       tx("0xaaa1", "0xvictim", "0xaaa", 20, swapSelector, base),
			attacker:     tx("0xbbb1", "0xattacker", "0xaaa", 80, swapSelector, base.Add(time.Second)),
			wantMatch:    true,
			wantSeverity: domain.SeverityCritical,
			wantDelta:    60,
		},
		{
			name:         "medium when delta at or under 50 gwei",
			victim:       tx("0xaaa2", "0xvictim", "0xaaa", 20, swapSelector, base),
			attacker:     tx("0xbbb2", "0xattacker", "0xaaa", 50, swapSelector, base.Add(time.Second)),
			wantMatch:    true,
			wantSeverity: domain.SeverityMedium,
			wantDelta:    30,
		},
		{
			name:      "identical gas prices never match",
			victim:    tx("0xaaa3", "0xvictim", "0xaaa", 20, swapSelector, base),
			attacker:  tx("0xbbb3", "0xattacker", "0xaaa", 20, swapSelector, base.Add(time.Second)),
			wantMatch: false,
		},
		{
			name:      "different selectors never match",
			victim:    tx("0xaaa4", "0xvictim", "0xaaa", 20, swapSelector, base),
			attacker:  tx("0xbbb4", "0xattacker", "0xaaa", 80, []byte{0xa9, 0x05, 0x9c, 0xbb}, base.Add(time.Second)),
			wantMatch: false,
		},
		{
			name:      "different recipients never match",
			victim:    tx("0xaaa5", "0xvictim", "0xaaa", 20, swapSelector, base),
			attacker:  tx("0xbbb5", "0xattacker", "0xccc", 80, swapSelector, base.Add(time.Second)),
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewDetector(DefaultConfig())
			snapshot := []domain.ObservedTransaction{tt.victim, tt.attacker}
			events := detector.Inspect(tt.attacker, snapshot)

			if !tt.wantMatch {
				if len(events) != 0 {
					t.Fatalf("Inspect() = %d events, want 0", len(events))
				}
				return
			}

			if len(events) != 1 {
				t.Fatalf("Inspect() = %d events, want 1", len(events))
			}
			ev := events[0]
			if ev.Kind != domain.AttackFrontRunning {
				t.Errorf("Kind = %s, want %s", ev.Kind, domain.AttackFrontRunning)
			}
			if ev.Severity != tt.wantSeverity {
				t.Errorf("Severity = %s, want %s", ev.Severity, tt.wantSeverity)
			}
			if ev.Victim != tt.victim.From {
				t.Errorf("Victim = %s, want %s", ev.Victim, tt.victim.From)
			}
			if ev.Attacker != tt.attacker.From {
				t.Errorf("Attacker = %s, want %s", ev.Attacker, tt.attacker.From)
			}
			if ev.VictimHash != tt.victim.Hash {
				t.Errorf("VictimHash = %s, want %s", ev.VictimHash, tt.victim.Hash)
			}
			if ev.GasPriceDelta != tt.wantDelta {
				t.Errorf("GasPriceDelta = %d, want %d", ev.GasPriceDelta, tt.wantDelta)
			}
			if ev.Confidence != 85 {
				t.Errorf("Confidence = %d, want 85", ev.Confidence)
			}
		})
	}
}

func TestFrontRunningLowerPricedArrivesSecond(t *testing.T) {
	// The victim observed after the attacker is still the victim.
	base := time.Now()
	attacker := tx("0xbbb", "0xattacker", "0xaaa", 80, swapSelector, base)
	victim := tx("0xaaa", "0xvictim", "0xaaa", 20, swapSelector, base.Add(time.Second))

	detector := NewDetector(DefaultConfig())
	events := detector.Inspect(victim, []domain.ObservedTransaction{attacker, victim})

	if len(events) != 1 {
		t.Fatalf("Inspect() = %d events, want 1", len(events))
	}
	if events[0].Victim != "0xvictim" || events[0].Attacker != "0xattacker" {
		t.Errorf("roles = victim %s / attacker %s, want 0xvictim / 0xattacker",
			events[0].Victim, events[0].Attacker)
	}
}

func TestSandwich(t *testing.T) {
	base := time.Now()
	front := tx("0xp", "0xattacker", "0xpool", 90, swapSelector, base)
	victim := tx("0xm", "0xvictim", "0xpool", 50, swapSelector, base.Add(time.Second))
	back := tx("0xn", "0xattacker", "0xpool", 40, swapSelector, base.Add(2*time.Second))

	cfg := DefaultConfig()
	cfg.FrontRunning = false // isolate the sandwich rule
	detector := NewDetector(cfg)

	events := detector.Inspect(back, []domain.ObservedTransaction{front, victim, back})
	if len(events) != 1 {
		t.Fatalf("Inspect() = %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.Kind != domain.AttackSandwich {
		t.Errorf("Kind = %s, want %s", ev.Kind, domain.AttackSandwich)
	}
	if ev.Severity != domain.SeverityHigh {
		t.Errorf("Severity = %s, want %s", ev.Severity, domain.SeverityHigh)
	}
	if ev.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90", ev.Confidence)
	}
	if ev.Victim != "0xvictim" || ev.VictimHash != "0xm" {
		t.Errorf("victim = %s (%s), want 0xvictim (0xm)", ev.Victim, ev.VictimHash)
	}
}

func TestSandwichNoMatch(t *testing.T) {
	base := time.Now()

	cfg := DefaultConfig()
	cfg.FrontRunning = false
	detector := NewDetector(cfg)

	tests := []struct {
		name  string
		order []domain.ObservedTransaction
	}{
		{
			name: "victim before front leg",
			order: []domain.ObservedTransaction{
				tx("0xm", "0xvictim", "0xpool", 50, swapSelector, base),
				tx("0xp", "0xattacker", "0xpool", 90, swapSelector, base.Add(time.Second)),
				tx("0xn", "0xattacker2", "0xpool", 40, swapSelector, base.Add(2*time.Second)),
			},
		},
		{
			name: "spread of 10 seconds or more",
			order: []domain.ObservedTransaction{
				tx("0xp", "0xattacker", "0xpool", 90, swapSelector, base),
				tx("0xm", "0xvictim", "0xpool", 50, swapSelector, base.Add(5*time.Second)),
				tx("0xn", "0xattacker", "0xpool", 40, swapSelector, base.Add(10*time.Second)),
			},
		},
		{
			name: "different pools",
			order: []domain.ObservedTransaction{
				tx("0xp", "0xattacker", "0xpool", 90, swapSelector, base),
				tx("0xm", "0xvictim", "0xother", 50, swapSelector, base.Add(time.Second)),
				tx("0xn", "0xattacker", "0xpool", 40, swapSelector, base.Add(2*time.Second)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := tt.order[len(tt.order)-1]
			events := detector.Inspect(last, tt.order)
			if len(events) != 0 {
				t.Errorf("Inspect() = %d events, want 0", len(events))
			}
		})
	}
}

func TestSandwichReportedOnce(t *testing.T) {
	base := time.Now()
	front := tx("0xp", "0xattacker", "0xpool", 90, swapSelector, base)
	victim := tx("0xm", "0xvictim", "0xpool", 50, swapSelector, base.Add(time.Second))
	back := tx("0xn", "0xattacker", "0xpool", 40, swapSelector, base.Add(2*time.Second))
	later := tx("0xq", "0xother", "0xelsewhere", 30, nil, base.Add(3*time.Second))

	cfg := DefaultConfig()
	cfg.FrontRunning = false
	detector := NewDetector(cfg)

	snapshot := []domain.ObservedTransaction{front, victim, back}
	if n := len(detector.Inspect(back, snapshot)); n != 1 {
		t.Fatalf("first inspection: %d events, want 1", n)
	}

	// The same bracket must not fire again for a later observation.
	snapshot = append(snapshot, later)
	if n := len(detector.Inspect(later, snapshot)); n != 0 {
		t.Errorf("second inspection: %d events, want 0", n)
	}
}

package domain

import "time"

// AttackKind identifies the adversarial pattern a detection matched.
type AttackKind string

const (
	AttackFrontRunning AttackKind = "front_running"
	AttackSandwich     AttackKind = "sandwich"
)

// Severity grades how damaging a detection or health incident is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DetectionEvent is the durable output of the pattern detector.
// Read-only once emitted.
type DetectionEvent struct {
	ID              string     `json:"id"`
	Kind            AttackKind `json:"kind"`
	Severity        Severity   `json:"severity"`
	ChainID         string     `json:"chain_id"`
	VictimHash      string     `json:"victim_hash"`
	Attacker        string     `json:"attacker"`
	Victim          string     `json:"victim"`
	EstimatedProfit float64    `json:"estimated_profit"`
	GasPriceDelta   uint64     `json:"gas_price_delta"` // gwei
	Confidence      int        `json:"confidence"`      // 0-100
	Mitigation      string     `json:"mitigation"`
	DetectedAt      time.Time  `json:"detected_at"`
}

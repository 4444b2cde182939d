package domain

import "time"

// HealthSample is one probe result for an execution venue.
// Short-lived; superseded every poll interval.
type HealthSample struct {
	Venue             string        `json:"venue"`
	ResponseTime      time.Duration `json:"response_time"`
	FailureRate       float64       `json:"failure_rate"` // 0-100
	RequestsPerSecond float64       `json:"requests_per_second"`
	ErrorCount        int           `json:"error_count"`
	SampledAt         time.Time     `json:"sampled_at"`
}

// VenueAttackType classifies a degraded venue's failure shape.
// Reporting only; mitigation logic does not branch on it.
type VenueAttackType string

const (
	VenueAttackDistributedDenial  VenueAttackType = "distributed_denial"
	VenueAttackSlowloris          VenueAttackType = "slowloris"
	VenueAttackResourceExhaustion VenueAttackType = "resource_exhaustion"
	VenueAttackConnectionFlood    VenueAttackType = "connection_flood"
)

// BreakerState is the availability state of a venue's circuit breaker.
type BreakerState string

const (
	BreakerClosed BreakerState = "closed"
	BreakerOpen   BreakerState = "open"
)

// VenueIncident is a classified health degradation handed to the
// mitigation pipeline when a breaker opens.
type VenueIncident struct {
	ID         string          `json:"id"`
	Venue      string          `json:"venue"`
	AttackType VenueAttackType `json:"attack_type"`
	Severity   Severity        `json:"severity"`
	Sample     HealthSample    `json:"sample"`
	Strategies []string        `json:"strategies,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

package venue

import (
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Thresholds define when a health sample counts as venue degradation.
type Thresholds struct {
	ResponseTime        time.Duration
	FailureRate         float64 // percent
	ConsecutiveFailures int
}

// DefaultThresholds returns the production degradation cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ResponseTime:        2000 * time.Millisecond,
		FailureRate:         30,
		ConsecutiveFailures: 5,
	}
}

// UnderAttack reports whether the sample crosses any degradation threshold.
func UnderAttack(s domain.HealthSample, t Thresholds) bool {
	return s.ResponseTime > t.ResponseTime ||
		s.FailureRate > t.FailureRate ||
		s.ErrorCount > t.ConsecutiveFailures
}

// ClassifyAttack names the degradation shape. Reporting only; mitigation
// does not branch on it.
func ClassifyAttack(s domain.HealthSample) domain.VenueAttackType {
	switch {
	case s.RequestsPerSecond > 2000 && s.FailureRate > 50:
		return domain.VenueAttackDistributedDenial
	case s.ResponseTime > 5000*time.Millisecond && s.RequestsPerSecond < 100:
		return domain.VenueAttackSlowloris
	case s.FailureRate > 80:
		return domain.VenueAttackResourceExhaustion
	default:
		return domain.VenueAttackConnectionFlood
	}
}

// ClassifySeverity grades a sample.
func ClassifySeverity(s domain.HealthSample) domain.Severity {
	switch {
	case s.ResponseTime > 10000*time.Millisecond || s.FailureRate > 90:
		return domain.SeverityCritical
	case s.ResponseTime > 5000*time.Millisecond || s.FailureRate > 70:
		return domain.SeverityHigh
	case s.ResponseTime > 2000*time.Millisecond || s.FailureRate > 30:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

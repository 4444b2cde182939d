package venue

import (
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name   string
		sample domain.HealthSample
		want   domain.Severity
	}{
		{
			name:   "healthy",
			sample: domain.HealthSample{ResponseTime: 100 * time.Millisecond, FailureRate: 1},
			want:   domain.SeverityLow,
		},
		{
			name:   "slow response is medium",
			sample: domain.HealthSample{ResponseTime: 3 * time.Second, FailureRate: 5},
			want:   domain.SeverityMedium,
		},
		{
			name:   "failure rate over 70 is high",
			sample: domain.HealthSample{ResponseTime: 100 * time.Millisecond, FailureRate: 75},
			want:   domain.SeverityHigh,
		},
		{
			name:   "failure rate over 90 is critical",
			sample: domain.HealthSample{ResponseTime: 100 * time.Millisecond, FailureRate: 95},
			want:   domain.SeverityCritical,
		},
		{
			name:   "response over 10s is critical",
			sample: domain.HealthSample{ResponseTime: 11 * time.Second, FailureRate: 0},
			want:   domain.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySeverity(tt.sample); got != tt.want {
				t.Errorf("ClassifySeverity() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyAttack(t *testing.T) {
	tests := []struct {
		name   string
		sample domain.HealthSample
		want   domain.VenueAttackType
	}{
		{
			name:   "high rps and failures is distributed denial",
			sample: domain.HealthSample{RequestsPerSecond: 3000, FailureRate: 60},
			want:   domain.VenueAttackDistributedDenial,
		},
		{
			name:   "slow with low traffic is slowloris",
			sample: domain.HealthSample{ResponseTime: 6 * time.Second, RequestsPerSecond: 50},
			want:   domain.VenueAttackSlowloris,
		},
		{
			name:   "very high failure rate is resource exhaustion",
			sample: domain.HealthSample{FailureRate: 85, RequestsPerSecond: 500},
			want:   domain.VenueAttackResourceExhaustion,
		},
		{
			name:   "anything else is connection flood",
			sample: domain.HealthSample{ResponseTime: 3 * time.Second, FailureRate: 40, RequestsPerSecond: 500},
			want:   domain.VenueAttackConnectionFlood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyAttack(tt.sample); got != tt.want {
				t.Errorf("ClassifyAttack() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnderAttack(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name   string
		sample domain.HealthSample
		want   bool
	}{
		{"healthy", domain.HealthSample{ResponseTime: 100 * time.Millisecond, FailureRate: 5}, false},
		{"slow", domain.HealthSample{ResponseTime: 3 * time.Second}, true},
		{"failing", domain.HealthSample{FailureRate: 50}, true},
		{"errors", domain.HealthSample{ErrorCount: 6}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnderAttack(tt.sample, thresholds); got != tt.want {
				t.Errorf("UnderAttack() = %v, want %v", got, tt.want)
			}
		})
	}
}

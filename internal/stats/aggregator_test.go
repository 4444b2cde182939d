package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

type stubBreakers struct {
	states map[string]domain.BreakerState
}

func (s stubBreakers) State(venue string) domain.BreakerState {
	if st, ok := s.states[venue]; ok {
		return st
	}
	return domain.BreakerClosed
}

func (s stubBreakers) OpenVenues() []string {
	var open []string
	for v, st := range s.states {
		if st == domain.BreakerOpen {
			open = append(open, v)
		}
	}
	return open
}

func TestAggregatorDetectionCounters(t *testing.T) {
	a := NewAggregator(nil)

	a.OnDetection(domain.DetectionEvent{ChainID: "1", Kind: domain.AttackFrontRunning, Severity: domain.SeverityCritical})
	a.OnDetection(domain.DetectionEvent{ChainID: "1", Kind: domain.AttackSandwich, Severity: domain.SeverityHigh})
	a.OnDetection(domain.DetectionEvent{ChainID: "137", Kind: domain.AttackFrontRunning, Severity: domain.SeverityMedium})
	a.RecordAlert()
	a.RecordAlert()
	a.RecordRelayRoute("1", "flashbots")
	a.RecordBundle()
	a.RecordQueueDrop()
	a.RecordSinkFailure()

	got := a.Detections()
	if got.Total != 3 {
		t.Errorf("Total = %d, want 3", got.Total)
	}
	if got.ByKind[domain.AttackFrontRunning] != 2 || got.ByKind[domain.AttackSandwich] != 1 {
		t.Errorf("ByKind = %v", got.ByKind)
	}
	if got.Alerts != 2 || got.RelayRoutes != 1 || got.Bundles != 1 {
		t.Errorf("Alerts=%d RelayRoutes=%d Bundles=%d", got.Alerts, got.RelayRoutes, got.Bundles)
	}
	if got.QueueDrops != 1 || got.SinkFailures != 1 {
		t.Errorf("QueueDrops=%d SinkFailures=%d", got.QueueDrops, got.SinkFailures)
	}
}

func TestAggregatorSnapshotsAreIdempotent(t *testing.T) {
	a := NewAggregator(nil)
	a.OnDetection(domain.DetectionEvent{ChainID: "1", Kind: domain.AttackFrontRunning, Severity: domain.SeverityHigh})
	a.OnIncident(domain.VenueIncident{Venue: "uniswap", AttackType: domain.VenueAttackSlowloris, Severity: domain.SeverityHigh})

	first := a.Detections()
	second := a.Detections()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive detection snapshots differ: %+v vs %+v", first, second)
	}

	v1 := a.Venues()
	v2 := a.Venues()
	if !reflect.DeepEqual(v1.Venues, v2.Venues) {
		t.Errorf("consecutive venue snapshots differ: %+v vs %+v", v1.Venues, v2.Venues)
	}

	// Mutating a returned snapshot must not leak into the aggregator.
	first.ByKind[domain.AttackSandwich] = 99
	if a.Detections().ByKind[domain.AttackSandwich] != 0 {
		t.Error("snapshot mutation leaked into internal state")
	}
}

func TestAggregatorVenueStats(t *testing.T) {
	a := NewAggregator(stubBreakers{states: map[string]domain.BreakerState{
		"uniswap": domain.BreakerOpen,
	}})

	sample := domain.HealthSample{
		Venue:        "uniswap",
		ResponseTime: 6 * time.Second,
		FailureRate:  85,
		SampledAt:    time.Now(),
	}
	a.OnSample(sample, domain.SeverityHigh)
	a.OnIncident(domain.VenueIncident{Venue: "uniswap", AttackType: domain.VenueAttackResourceExhaustion, Severity: domain.SeverityHigh})
	a.OnSample(domain.HealthSample{Venue: "sushiswap", ResponseTime: 80 * time.Millisecond}, domain.SeverityLow)
	a.RecordStrategy("uniswap", "rate_limiting")
	a.RecordStrategy("uniswap", "cached_data")

	got := a.Venues()
	if len(got.Venues) != 2 {
		t.Fatalf("got %d venues, want 2", len(got.Venues))
	}

	uni := got.Venues[0]
	if uni.Venue != "uniswap" {
		t.Fatalf("first venue = %s, want uniswap (insertion order)", uni.Venue)
	}
	if uni.BreakerState != domain.BreakerOpen {
		t.Errorf("uniswap breaker = %s, want open", uni.BreakerState)
	}
	if uni.Incidents != 1 || uni.ByAttackType[domain.VenueAttackResourceExhaustion] != 1 {
		t.Errorf("uniswap incidents = %d, byAttackType = %v", uni.Incidents, uni.ByAttackType)
	}
	if uni.LastSample == nil || uni.LastSample.FailureRate != 85 {
		t.Errorf("uniswap LastSample = %+v, want the recorded sample", uni.LastSample)
	}
	if uni.Strategies["rate_limiting"] != 1 || uni.Strategies["cached_data"] != 1 {
		t.Errorf("uniswap strategies = %v", uni.Strategies)
	}

	if !reflect.DeepEqual(got.OpenBreakers, []string{"uniswap"}) {
		t.Errorf("OpenBreakers = %v, want [uniswap]", got.OpenBreakers)
	}
	if got.Venues[1].BreakerState != domain.BreakerClosed {
		t.Errorf("sushiswap breaker = %s, want closed", got.Venues[1].BreakerState)
	}
}

package venue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

type stubProbe struct {
	sample domain.HealthSample
	err    error
}

func (s stubProbe) Probe(ctx context.Context, venue string) (domain.HealthSample, error) {
	return s.sample, s.err
}

type captureSinks struct {
	samples   []domain.HealthSample
	severity  []domain.Severity
	incidents []domain.VenueIncident
}

func (c *captureSinks) OnSample(s domain.HealthSample, severity domain.Severity) {
	c.samples = append(c.samples, s)
	c.severity = append(c.severity, severity)
}

func (c *captureSinks) OnIncident(inc domain.VenueIncident) {
	c.incidents = append(c.incidents, inc)
}

func newTestProber(probe Probe, breaker *Breaker, sinks *captureSinks) *Prober {
	return NewProber(
		ProberConfig{
			Venue:      "uniswap",
			Interval:   time.Second,
			Timeout:    2 * time.Second,
			Thresholds: DefaultThresholds(),
		},
		probe,
		breaker,
		[]SampleSink{sinks},
		[]IncidentSink{sinks},
	)
}

func TestProberHealthySample(t *testing.T) {
	breaker := NewBreaker(300 * time.Second)
	sinks := &captureSinks{}
	p := newTestProber(stubProbe{sample: domain.HealthSample{
		ResponseTime: 100 * time.Millisecond,
		FailureRate:  1,
	}}, breaker, sinks)

	p.Tick(context.Background())

	if len(sinks.samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(sinks.samples))
	}
	if len(sinks.incidents) != 0 {
		t.Errorf("got %d incidents, want 0", len(sinks.incidents))
	}
	if !breaker.Available("uniswap") {
		t.Error("breaker opened on a healthy sample")
	}
}

func TestProberFailureOpensBreaker(t *testing.T) {
	breaker := NewBreaker(300 * time.Second)
	sinks := &captureSinks{}
	p := newTestProber(stubProbe{err: errors.New("connection refused")}, breaker, sinks)

	p.Tick(context.Background())

	// A failed probe becomes a worst-case sample, not a gap
	if len(sinks.samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(sinks.samples))
	}
	sample := sinks.samples[0]
	if sample.FailureRate != 100 {
		t.Errorf("FailureRate = %.0f, want 100", sample.FailureRate)
	}
	if sample.ResponseTime != 2*time.Second {
		t.Errorf("ResponseTime = %v, want probe timeout", sample.ResponseTime)
	}

	if breaker.Available("uniswap") {
		t.Error("breaker still closed after total failure")
	}
	if len(sinks.incidents) != 1 {
		t.Fatalf("got %d incidents, want 1", len(sinks.incidents))
	}
	if sinks.incidents[0].Severity != domain.SeverityCritical {
		t.Errorf("incident severity = %s, want critical", sinks.incidents[0].Severity)
	}
}

func TestProberIncidentOnlyOnTransition(t *testing.T) {
	breaker := NewBreaker(300 * time.Second)
	sinks := &captureSinks{}
	p := newTestProber(stubProbe{err: errors.New("connection refused")}, breaker, sinks)

	p.Tick(context.Background())
	p.Tick(context.Background())
	p.Tick(context.Background())

	if len(sinks.incidents) != 1 {
		t.Errorf("got %d incidents, want 1 (only the Closed->Open transition)", len(sinks.incidents))
	}
	if len(sinks.samples) != 3 {
		t.Errorf("got %d samples, want 3", len(sinks.samples))
	}
}

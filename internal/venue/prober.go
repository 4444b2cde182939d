package venue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Probe samples one venue's health. Implementations are black boxes; the
// engine only requires that Probe returns within ctx's deadline or errors.
type Probe interface {
	Probe(ctx context.Context, venue string) (domain.HealthSample, error)
}

// SampleSink consumes every classified health sample.
type SampleSink interface {
	OnSample(s domain.HealthSample, severity domain.Severity)
}

// IncidentSink consumes incidents raised when a breaker opens.
type IncidentSink interface {
	OnIncident(inc domain.VenueIncident)
}

// ProberConfig holds the polling settings for one venue.
type ProberConfig struct {
	Venue      string
	Interval   time.Duration
	Timeout    time.Duration
	Thresholds Thresholds
}

// Prober polls a single venue on a fixed interval. Each venue gets its own
// prober goroutine so a hung probe can never stall another venue's timer.
type Prober struct {
	cfg           ProberConfig
	probe         Probe
	breaker       *Breaker
	sampleSinks   []SampleSink
	incidentSinks []IncidentSink
	log           *slog.Logger
}

// NewProber creates a prober for one venue.
func NewProber(cfg ProberConfig, probe Probe, breaker *Breaker, sampleSinks []SampleSink, incidentSinks []IncidentSink) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Prober{
		cfg:           cfg,
		probe:         probe,
		breaker:       breaker,
		sampleSinks:   sampleSinks,
		incidentSinks: incidentSinks,
		log:           slog.Default().With("venue", cfg.Venue),
	}
}

// Run polls until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one probe cycle: sample, classify, feed the breaker, and raise
// an incident when the breaker flips open.
func (p *Prober) Tick(ctx context.Context) {
	sample := p.collect(ctx)
	severity := ClassifySeverity(sample)

	if UnderAttack(sample, p.cfg.Thresholds) {
		p.log.Warn("Venue degraded",
			"attack_type", ClassifyAttack(sample),
			"severity", severity,
			"response_time", sample.ResponseTime,
			"failure_rate", sample.FailureRate,
		)
	}

	opened := p.breaker.Observe(p.cfg.Venue, severity)

	for _, sink := range p.sampleSinks {
		sink.OnSample(sample, severity)
	}

	if opened {
		inc := domain.VenueIncident{
			ID:         uuid.NewString(),
			Venue:      p.cfg.Venue,
			AttackType: ClassifyAttack(sample),
			Severity:   severity,
			Sample:     sample,
			OccurredAt: sample.SampledAt,
		}
		for _, sink := range p.incidentSinks {
			sink.OnIncident(inc)
		}
	}
}

// collect runs the probe with a bounded deadline. A timeout or failure is
// converted into a synthetic total-failure sample so the breaker still sees
// the outage instead of a gap.
func (p *Prober) collect(ctx context.Context) domain.HealthSample {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	sample, err := p.probe.Probe(probeCtx, p.cfg.Venue)
	if err != nil {
		p.log.Debug("Probe failed, recording worst-case sample", "error", err)
		return domain.HealthSample{
			Venue:        p.cfg.Venue,
			ResponseTime: p.cfg.Timeout,
			FailureRate:  100,
			ErrorCount:   p.cfg.Thresholds.ConsecutiveFailures + 1,
			SampledAt:    time.Now(),
		}
	}

	sample.Venue = p.cfg.Venue
	if sample.SampledAt.IsZero() {
		sample.SampledAt = time.Now()
	}
	return sample
}

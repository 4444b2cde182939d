package mitigate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/domain"
)

// Strategy names, applied in this fixed order on a breaker-open incident.
const (
	StrategyRateLimiting         = "rate_limiting"
	StrategyAlternativeVenue     = "alternative_venue"
	StrategyCachedData           = "cached_data"
	StrategyReducedFunctionality = "reduced_functionality"
)

const actionTimeout = 5 * time.Second

// Recorder counts the dispatcher's observable actions.
type Recorder interface {
	RecordAlert()
	RecordRelayRoute(chainID, relay string)
	RecordBundle()
	RecordQueueDrop()
	RecordSinkFailure()
	RecordStrategy(venue, strategy string)
}

// Archive persists detections and incidents. Optional; failures are logged
// and never block the pipeline.
type Archive interface {
	SaveDetection(ctx context.Context, ev domain.DetectionEvent) error
	SaveIncident(ctx context.Context, inc domain.VenueIncident) error
}

// BlockHeights reports the current block height per chain, used to target
// bundles at the next block. May be nil.
type BlockHeights interface {
	CurrentBlock(chainID string) uint64
}

// task is one unit of mitigation work. Exactly one field is set.
type task struct {
	detection *domain.DetectionEvent
	incident  *domain.VenueIncident
}

// Dispatcher consumes detection events and breaker-open incidents through a
// bounded queue and invokes the external sinks. Enqueueing never blocks the
// monitoring loops: when the queue is full the oldest unprocessed task is
// dropped and counted.
type Dispatcher struct {
	cfg      config.MitigationConfig
	selector *RelaySelector
	alerts   AlertSink
	relay    RelaySink
	recorder Recorder
	archive  Archive
	heights  BlockHeights
	queue    chan task
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher. archive and heights may be nil.
func NewDispatcher(
	cfg config.MitigationConfig,
	selector *RelaySelector,
	alerts AlertSink,
	relay RelaySink,
	recorder Recorder,
	archive Archive,
	heights BlockHeights,
) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Dispatcher{
		cfg:      cfg,
		selector: selector,
		alerts:   alerts,
		relay:    relay,
		recorder: recorder,
		archive:  archive,
		heights:  heights,
		queue:    make(chan task, cfg.QueueSize),
		log:      slog.Default(),
	}
}

// OnDetection queues a detection event for mitigation. Never blocks.
func (d *Dispatcher) OnDetection(ev domain.DetectionEvent) {
	d.enqueue(task{detection: &ev})
}

// OnIncident queues a breaker-open incident for mitigation. Never blocks.
func (d *Dispatcher) OnIncident(inc domain.VenueIncident) {
	d.enqueue(task{incident: &inc})
}

// enqueue adds a task, evicting the oldest queued task when full.
func (d *Dispatcher) enqueue(t task) {
	for {
		select {
		case d.queue <- t:
			return
		default:
		}
		select {
		case <-d.queue:
			d.recorder.RecordQueueDrop()
			d.log.Warn("Mitigation queue full, dropped oldest task")
		default:
		}
	}
}

// Run processes queued tasks until ctx is cancelled. Each task runs with
// its own deadline so an in-flight action finishes during shutdown instead
// of being cut off mid-send.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-d.queue:
			taskCtx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			d.process(taskCtx, t)
			cancel()
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, t task) {
	switch {
	case t.detection != nil:
		d.handleDetection(ctx, *t.detection)
	case t.incident != nil:
		d.handleIncident(ctx, *t.incident)
	}
}

// handleDetection alerts, routes to a private relay and submits a bundle
// per the configured countermeasures. Sink failures never propagate.
func (d *Dispatcher) handleDetection(ctx context.Context, ev domain.DetectionEvent) {
	d.sendAlert(ctx, domain.Alert{
		Kind:     string(ev.Kind),
		Severity: ev.Severity,
		Message:  fmt.Sprintf("%s detected on chain %s", ev.Kind, ev.ChainID),
		Details: map[string]string{
			"victim":     ev.Victim,
			"victim_tx":  ev.VictimHash,
			"attacker":   ev.Attacker,
			"confidence": fmt.Sprintf("%d", ev.Confidence),
			"mitigation": ev.Mitigation,
		},
		Timestamp: ev.DetectedAt,
	})

	var relayName string
	if d.cfg.PrivateRelay || d.cfg.Bundles {
		relay, ok := d.selector.Select(ev.ChainID)
		if !ok {
			d.log.Debug("No enabled relay for chain", "chain", ev.ChainID)
		} else {
			relayName = relay.Name
		}
	}

	if d.cfg.PrivateRelay && relayName != "" {
		d.recorder.RecordRelayRoute(ev.ChainID, relayName)
		d.log.Info("Routing through private relay", "chain", ev.ChainID, "relay", relayName)
	}

	if d.cfg.Bundles && relayName != "" {
		var current uint64
		if d.heights != nil {
			current = d.heights.CurrentBlock(ev.ChainID)
		}
		bundle := BuildBundle(ev, current)
		if err := d.relay.SubmitBundle(ctx, ev.ChainID, bundle); err != nil {
			d.recorder.RecordSinkFailure()
			d.log.Warn("Bundle submission failed", "chain", ev.ChainID, "relay", relayName, "error", err)
		} else {
			d.recorder.RecordBundle()
		}
	}

	if d.archive != nil {
		if err := d.archive.SaveDetection(ctx, ev); err != nil {
			d.log.Warn("Failed to archive detection", "error", err)
		}
	}
}

// handleIncident applies the enabled fallback strategies in fixed order and
// records each against the incident.
func (d *Dispatcher) handleIncident(ctx context.Context, inc domain.VenueIncident) {
	d.sendAlert(ctx, domain.Alert{
		Kind:     string(inc.AttackType),
		Severity: inc.Severity,
		Message:  fmt.Sprintf("venue %s circuit breaker opened", inc.Venue),
		Details: map[string]string{
			"venue":         inc.Venue,
			"attack_type":   string(inc.AttackType),
			"response_time": inc.Sample.ResponseTime.String(),
			"failure_rate":  fmt.Sprintf("%.1f", inc.Sample.FailureRate),
		},
		Timestamp: inc.OccurredAt,
	})

	// Rate limiting always applies first; the fallbacks follow in declared
	// order so reporting stays comparable across incidents.
	ordered := []struct {
		name    string
		enabled bool
	}{
		{StrategyRateLimiting, d.cfg.RateLimiting},
		{StrategyAlternativeVenue, d.cfg.AlternativeVenue},
		{StrategyCachedData, d.cfg.CachedData},
		{StrategyReducedFunctionality, d.cfg.ReducedFunctionality},
	}

	for _, s := range ordered {
		if !s.enabled {
			continue
		}
		inc.Strategies = append(inc.Strategies, s.name)
		d.recorder.RecordStrategy(inc.Venue, s.name)
		d.log.Info("Applied mitigation strategy", "venue", inc.Venue, "strategy", s.name)
	}

	if d.archive != nil {
		if err := d.archive.SaveIncident(ctx, inc); err != nil {
			d.log.Warn("Failed to archive incident", "error", err)
		}
	}
}

func (d *Dispatcher) sendAlert(ctx context.Context, alert domain.Alert) {
	if err := d.alerts.SendAlert(ctx, alert); err != nil {
		d.recorder.RecordSinkFailure()
		d.log.Warn("Alert delivery failed", "kind", alert.Kind, "error", err)
		return
	}
	d.recorder.RecordAlert()
}

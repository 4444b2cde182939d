package stats

import (
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// BreakerStates exposes the current breaker state per venue.
type BreakerStates interface {
	State(venue string) domain.BreakerState
	OpenVenues() []string
}

// DetectionStats is a point-in-time view of detection counters.
type DetectionStats struct {
	Total        int                       `json:"total"`
	ByKind       map[domain.AttackKind]int `json:"by_kind"`
	BySeverity   map[domain.Severity]int   `json:"by_severity"`
	Alerts       int                       `json:"alerts"`
	RelayRoutes  int                       `json:"relay_routes"`
	Bundles      int                       `json:"bundles"`
	QueueDrops   int                       `json:"queue_drops"`
	SinkFailures int                       `json:"sink_failures"`
}

// VenueStat is the per-venue slice of a VenueStats snapshot.
type VenueStat struct {
	Venue        string                         `json:"venue"`
	BreakerState domain.BreakerState            `json:"breaker_state"`
	LastSample   *domain.HealthSample           `json:"last_sample,omitempty"`
	LastSeverity domain.Severity                `json:"last_severity,omitempty"`
	Incidents    int                            `json:"incidents"`
	ByAttackType map[domain.VenueAttackType]int `json:"by_attack_type"`
	BySeverity   map[domain.Severity]int        `json:"by_severity"`
	Strategies   map[string]int                 `json:"strategies,omitempty"`
}

// VenueStats is a point-in-time view of venue health counters.
type VenueStats struct {
	Venues       []VenueStat `json:"venues"`
	OpenBreakers []string    `json:"open_breakers"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

type venueRecord struct {
	lastSample   *domain.HealthSample
	lastSeverity domain.Severity
	incidents    int
	byAttackType map[domain.VenueAttackType]int
	bySeverity   map[domain.Severity]int
	strategies   map[string]int
}

// Aggregator maintains running counters for every event the engine emits.
// Snapshots are idempotent: reading never mutates.
type Aggregator struct {
	mu sync.RWMutex

	breakers BreakerStates

	totalDetections int
	byKind          map[domain.AttackKind]int
	bySeverity      map[domain.Severity]int

	alerts       int
	relayRoutes  int
	bundles      int
	queueDrops   int
	sinkFailures int

	venues map[string]*venueRecord
	order  []string
}

// NewAggregator creates an aggregator. breakers may be nil when no breaker
// controller is wired (tests).
func NewAggregator(breakers BreakerStates) *Aggregator {
	return &Aggregator{
		breakers:   breakers,
		byKind:     make(map[domain.AttackKind]int),
		bySeverity: make(map[domain.Severity]int),
		venues:     make(map[string]*venueRecord),
	}
}

// OnDetection counts one detection event.
func (a *Aggregator) OnDetection(ev domain.DetectionEvent) {
	a.mu.Lock()
	a.totalDetections++
	a.byKind[ev.Kind]++
	a.bySeverity[ev.Severity]++
	a.mu.Unlock()

	DetectionsTotal.WithLabelValues(ev.ChainID, string(ev.Kind), string(ev.Severity)).Inc()
}

// OnSample records the most recent classified sample for a venue.
func (a *Aggregator) OnSample(s domain.HealthSample, severity domain.Severity) {
	a.mu.Lock()
	rec := a.venue(s.Venue)
	sample := s
	rec.lastSample = &sample
	rec.lastSeverity = severity
	a.mu.Unlock()

	VenueResponseTime.WithLabelValues(s.Venue).Set(s.ResponseTime.Seconds())
}

// OnIncident counts one venue health incident.
func (a *Aggregator) OnIncident(inc domain.VenueIncident) {
	a.mu.Lock()
	rec := a.venue(inc.Venue)
	rec.incidents++
	rec.byAttackType[inc.AttackType]++
	rec.bySeverity[inc.Severity]++
	a.mu.Unlock()

	VenueIncidentsTotal.WithLabelValues(inc.Venue, string(inc.AttackType), string(inc.Severity)).Inc()
}

// RecordAlert counts one dispatched alert.
func (a *Aggregator) RecordAlert() {
	a.mu.Lock()
	a.alerts++
	a.mu.Unlock()
	AlertsTotal.Inc()
}

// RecordRelayRoute counts one private-relay routing decision.
func (a *Aggregator) RecordRelayRoute(chainID, relay string) {
	a.mu.Lock()
	a.relayRoutes++
	a.mu.Unlock()
	RelayRoutesTotal.WithLabelValues(chainID, relay).Inc()
}

// RecordBundle counts one submitted bundle.
func (a *Aggregator) RecordBundle() {
	a.mu.Lock()
	a.bundles++
	a.mu.Unlock()
	BundlesTotal.Inc()
}

// RecordQueueDrop counts one mitigation task dropped under backpressure.
func (a *Aggregator) RecordQueueDrop() {
	a.mu.Lock()
	a.queueDrops++
	a.mu.Unlock()
	MitigationDropsTotal.Inc()
}

// RecordSinkFailure counts one alert/relay sink failure.
func (a *Aggregator) RecordSinkFailure() {
	a.mu.Lock()
	a.sinkFailures++
	a.mu.Unlock()
	SinkFailuresTotal.Inc()
}

// RecordStrategy counts one mitigation strategy applied for a venue.
func (a *Aggregator) RecordStrategy(venue, strategy string) {
	a.mu.Lock()
	rec := a.venue(venue)
	rec.strategies[strategy]++
	a.mu.Unlock()
}

// Detections returns a snapshot of the detection counters.
func (a *Aggregator) Detections() DetectionStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := DetectionStats{
		Total:        a.totalDetections,
		ByKind:       make(map[domain.AttackKind]int, len(a.byKind)),
		BySeverity:   make(map[domain.Severity]int, len(a.bySeverity)),
		Alerts:       a.alerts,
		RelayRoutes:  a.relayRoutes,
		Bundles:      a.bundles,
		QueueDrops:   a.queueDrops,
		SinkFailures: a.sinkFailures,
	}
	for k, v := range a.byKind {
		out.ByKind[k] = v
	}
	for k, v := range a.bySeverity {
		out.BySeverity[k] = v
	}
	return out
}

// Venues returns a snapshot of the venue health counters.
func (a *Aggregator) Venues() VenueStats {
	a.mu.RLock()
	venues := make([]VenueStat, 0, len(a.order))
	for _, name := range a.order {
		rec := a.venues[name]
		stat := VenueStat{
			Venue:        name,
			BreakerState: domain.BreakerClosed,
			LastSeverity: rec.lastSeverity,
			Incidents:    rec.incidents,
			ByAttackType: make(map[domain.VenueAttackType]int, len(rec.byAttackType)),
			BySeverity:   make(map[domain.Severity]int, len(rec.bySeverity)),
			Strategies:   make(map[string]int, len(rec.strategies)),
		}
		if rec.lastSample != nil {
			sample := *rec.lastSample
			stat.LastSample = &sample
		}
		for k, v := range rec.byAttackType {
			stat.ByAttackType[k] = v
		}
		for k, v := range rec.bySeverity {
			stat.BySeverity[k] = v
		}
		for k, v := range rec.strategies {
			stat.Strategies[k] = v
		}
		venues = append(venues, stat)
	}
	a.mu.RUnlock()

	out := VenueStats{
		Venues:      venues,
		GeneratedAt: time.Now(),
	}

	if a.breakers != nil {
		for i := range out.Venues {
			out.Venues[i].BreakerState = a.breakers.State(out.Venues[i].Venue)
		}
		out.OpenBreakers = a.breakers.OpenVenues()
		OpenBreakers.Set(float64(len(out.OpenBreakers)))
	}

	return out
}

// venue fetches or creates the record for a venue. Caller holds a.mu.
func (a *Aggregator) venue(name string) *venueRecord {
	rec, ok := a.venues[name]
	if !ok {
		rec = &venueRecord{
			byAttackType: make(map[domain.VenueAttackType]int),
			bySeverity:   make(map[domain.Severity]int),
			strategies:   make(map[string]int),
		}
		a.venues[name] = rec
		a.order = append(a.order, name)
	}
	return rec
}

package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsTotal tracks detections per chain, kind and severity
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_detections_total",
			Help: "Total number of attack pattern detections",
		},
		[]string{"chain", "kind", "severity"},
	)

	// VenueIncidentsTotal tracks health incidents per venue and attack type
	VenueIncidentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_venue_incidents_total",
			Help: "Total number of venue health incidents",
		},
		[]string{"venue", "attack_type", "severity"},
	)

	// AlertsTotal tracks alerts handed to the alert sink
	AlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_total",
			Help: "Total number of alerts dispatched",
		},
	)

	// RelayRoutesTotal tracks private-relay routing decisions
	RelayRoutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_relay_routes_total",
			Help: "Total number of relay routing decisions",
		},
		[]string{"chain", "relay"},
	)

	// BundlesTotal tracks bundles submitted to relays
	BundlesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_bundles_total",
			Help: "Total number of bundles submitted",
		},
	)

	// MitigationDropsTotal tracks mitigation tasks dropped under backpressure
	MitigationDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_mitigation_drops_total",
			Help: "Total number of mitigation tasks dropped from a full queue",
		},
	)

	// SinkFailuresTotal tracks alert/relay sink failures
	SinkFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_sink_failures_total",
			Help: "Total number of mitigation sink failures",
		},
	)

	// OpenBreakers tracks the number of currently open circuit breakers
	OpenBreakers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_open_breakers",
			Help: "Number of venues with an open circuit breaker",
		},
	)

	// VenueResponseTime tracks the last probed response time per venue
	VenueResponseTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_venue_response_time_seconds",
			Help: "Last probed venue response time in seconds",
		},
		[]string{"venue"},
	)
)

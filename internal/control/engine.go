package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/detect"
	redisclient "github.com/vietddude/sentinel/internal/infra/redis"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
	"github.com/vietddude/sentinel/internal/mempool"
	"github.com/vietddude/sentinel/internal/mitigate"
	"github.com/vietddude/sentinel/internal/stats"
	"github.com/vietddude/sentinel/internal/venue"
)

// Config holds the engine configuration plus the external collaborators the
// core depends on. Stream is required; the rest default to built-ins.
type Config struct {
	App           *config.AppConfig
	Stream        mempool.Stream
	Probe         venue.Probe           // nil = HTTP probe against venue endpoints
	AlertSink     mitigate.AlertSink    // nil = Redis stream when configured, else log
	RelaySink     mitigate.RelaySink    // nil = JSON-RPC submission to the selected relay
	Heights       mitigate.BlockHeights // nil = bundles target block 1
	MigrationsDir string                // "" = "migrations"
}

// Engine wires every component of the detection and mitigation pipeline and
// owns its lifecycle.
type Engine struct {
	cfg        Config
	caches     map[string]*mempool.Cache
	monitors   map[string]*mempool.Monitor
	probers    map[string]*venue.Prober
	breaker    *venue.Breaker
	dispatcher *mitigate.Dispatcher
	agg        *stats.Aggregator
	eventLog   *detect.Log
	server     *stats.Server
	db         *postgres.DB
	redis      *redisclient.Client
	log        *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewEngine creates an engine with all dependencies initialized. Invalid or
// disabled chains, venues and relays are skipped with a warning; a bad
// entity never prevents the rest of the engine from starting.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("missing app config")
	}
	if cfg.Stream == nil {
		return nil, fmt.Errorf("missing transaction stream")
	}
	app := cfg.App

	breaker := venue.NewBreaker(app.Breaker.RecoveryDuration.Std())
	agg := stats.NewAggregator(breaker)
	eventLog := detect.NewLog(app.Detection.EventLogCapacity, app.Detection.EventLogRetention.Std())

	e := &Engine{
		cfg:      cfg,
		caches:   make(map[string]*mempool.Cache),
		monitors: make(map[string]*mempool.Monitor),
		probers:  make(map[string]*venue.Prober),
		breaker:  breaker,
		agg:      agg,
		eventLog: eventLog,
		log:      slog.Default(),
	}

	// 1. Optional incident archive
	var archive mitigate.Archive
	if app.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), app.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		dir := cfg.MigrationsDir
		if dir == "" {
			dir = "migrations"
		}
		if err := db.Migrate(dir); err != nil {
			return nil, err
		}
		e.db = db
		archive = postgres.NewArchiveRepo(db)
		slog.Info("Using PostgreSQL incident archive")
	}

	// 2. Alert sink: explicit > Redis stream > structured log
	alertSink := cfg.AlertSink
	if alertSink == nil && app.Redis.URL != "" {
		client, err := redisclient.NewClient(app.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, falling back to log alerts", "error", err)
		} else {
			e.redis = client
			alertSink = client
			slog.Info("Publishing alerts to Redis stream")
		}
	}
	if alertSink == nil {
		alertSink = mitigate.LogAlertSink{}
	}

	// 3. Relay selection + submission
	selector := mitigate.NewRelaySelector(app.Relays)
	relaySink := cfg.RelaySink
	if relaySink == nil {
		relaySink = mitigate.NewHTTPRelaySink(selector, 10*time.Second)
	}

	// 4. Mitigation dispatcher
	e.dispatcher = mitigate.NewDispatcher(
		app.Mitigation,
		selector,
		alertSink,
		relaySink,
		agg,
		archive,
		cfg.Heights,
	)

	// 5. Per-chain stream monitors
	detector := detect.NewDetector(detect.Config{
		FrontRunning:      app.Detection.FrontRunning,
		Sandwich:          app.Detection.Sandwich,
		CriticalGasDelta:  app.Detection.CriticalGasDelta,
		SandwichWindow:    app.Detection.SandwichWindow,
		SandwichMaxSpread: app.Detection.SandwichMaxSpread.Std(),
	})

	for _, chainCfg := range app.Chains {
		if !chainCfg.Enabled {
			slog.Warn("Chain disabled, skipping monitor", "chain", chainCfg.ChainID)
			continue
		}
		cache := mempool.NewCache(chainCfg.ChainID, app.Detection.CacheCapacity)
		e.caches[chainCfg.ChainID] = cache
		e.monitors[chainCfg.ChainID] = mempool.NewMonitor(
			chainCfg.ChainID,
			cfg.Stream,
			cache,
			detector,
			e.dispatcher, agg, eventLog,
		)
	}

	// 6. Per-venue probers
	probe := cfg.Probe
	if probe == nil {
		endpoints := make(map[string]string)
		for _, v := range app.Venues {
			endpoints[v.Name] = v.Endpoint
		}
		probe = venue.NewHTTPProbe(endpoints, 10*time.Second)
	}

	thresholds := venue.Thresholds{
		ResponseTime:        app.Health.ResponseTime.Std(),
		FailureRate:         app.Health.FailureRate,
		ConsecutiveFailures: app.Health.ConsecutiveFailures,
	}

	for _, venueCfg := range app.Venues {
		if !venueCfg.Enabled {
			slog.Warn("Venue disabled, skipping prober", "venue", venueCfg.Name)
			continue
		}
		e.probers[venueCfg.Name] = venue.NewProber(
			venue.ProberConfig{
				Venue:      venueCfg.Name,
				Interval:   venueCfg.ProbeInterval.Std(),
				Timeout:    venueCfg.ProbeTimeout.Std(),
				Thresholds: thresholds,
			},
			probe,
			breaker,
			[]venue.SampleSink{agg},
			[]venue.IncidentSink{e.dispatcher, agg},
		)
	}

	e.server = stats.NewServer(agg, func() any { return eventLog.Recent() }, app.Server.Port)

	return e, nil
}

// Start launches every worker. It returns immediately; workers run until
// Stop or ctx cancellation.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	group, groupCtx := errgroup.WithContext(runCtx)
	e.group = group

	group.Go(func() error {
		return e.dispatcher.Run(groupCtx)
	})

	for id, mon := range e.monitors {
		e.log.Info("Starting chain monitor", "chain", id)
		id, m := id, mon
		group.Go(func() error {
			// A failed chain takes down its own monitor, not the engine.
			if err := m.Run(groupCtx); err != nil {
				e.log.Error("Chain monitor failed", "chain", id, "error", err)
			}
			return nil
		})
	}

	for name, prober := range e.probers {
		e.log.Info("Starting venue prober", "venue", name)
		p := prober
		group.Go(func() error {
			return p.Run(groupCtx)
		})
	}

	group.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				e.eventLog.Cleanup()
			}
		}
	})

	go func() {
		if err := e.server.Start(); err != nil {
			e.log.Error("Stats server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the engine down, letting in-flight work finish within ctx's
// deadline.
func (e *Engine) Stop(ctx context.Context) error {
	e.log.Info("Stopping engine...")

	if e.cancel != nil {
		e.cancel()
	}

	if e.server != nil {
		if err := e.server.Stop(ctx); err != nil {
			e.log.Warn("Failed to stop stats server", "error", err)
		}
	}

	if e.group != nil {
		done := make(chan error, 1)
		go func() { done <- e.group.Wait() }()
		select {
		case <-ctx.Done():
			e.log.Warn("Shutdown grace period elapsed with workers still running")
		case err := <-done:
			if err != nil {
				e.log.Warn("Worker exited with error", "error", err)
			}
		}
	}

	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.log.Warn("Failed to close database", "error", err)
		}
	}

	e.log.Info("Engine stopped")
	return nil
}

// DetectionStats returns the detection counters.
func (e *Engine) DetectionStats() stats.DetectionStats {
	return e.agg.Detections()
}

// VenueStats returns the per-venue health and breaker snapshot.
func (e *Engine) VenueStats() stats.VenueStats {
	return e.agg.Venues()
}

// IsVenueAvailable reports whether the venue's breaker is closed.
func (e *Engine) IsVenueAvailable(name string) bool {
	return e.breaker.Available(name)
}

// RecentDetections returns the retained detection events.
func (e *Engine) RecentDetections() []domain.DetectionEvent {
	return e.eventLog.Recent()
}

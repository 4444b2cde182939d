package config

import (
	redisclient "github.com/vietddude/sentinel/internal/infra/redis"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Chains     []ChainConfig      `yaml:"chains"`
	Venues     []VenueConfig      `yaml:"venues"`
	Relays     []RelayConfig      `yaml:"relays"`
	Detection  DetectionConfig    `yaml:"detection"`
	Health     HealthThresholds   `yaml:"health"`
	Breaker    BreakerConfig      `yaml:"breaker"`
	Mitigation MitigationConfig   `yaml:"mitigation"`
	Redis      redisclient.Config `yaml:"redis"`
	Database   postgres.Config    `yaml:"database"`
	Logging    LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChainConfig holds settings for one monitored chain.
type ChainConfig struct {
	ChainID string `yaml:"id"`
	Name    string `yaml:"name"`
	RPCURL  string `yaml:"rpc_url"`
	Enabled bool   `yaml:"enabled"`
}

// VenueConfig holds settings for one probed execution venue.
type VenueConfig struct {
	Name          string   `yaml:"name"`
	Endpoint      string   `yaml:"endpoint"`
	Enabled       bool     `yaml:"enabled"`
	ProbeInterval Duration `yaml:"probe_interval"`
	ProbeTimeout  Duration `yaml:"probe_timeout"`
}

// RelayConfig holds settings for one private relay.
type RelayConfig struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Chains  []string `yaml:"chains"`
	Primary bool     `yaml:"primary"`
	Enabled bool     `yaml:"enabled"`
}

// DetectionConfig tunes the attack pattern detector.
type DetectionConfig struct {
	FrontRunning      bool     `yaml:"front_running"`
	Sandwich          bool     `yaml:"sandwich"`
	CacheCapacity     int      `yaml:"cache_capacity"`
	CriticalGasDelta  uint64   `yaml:"critical_gas_delta"` // gwei
	SandwichWindow    int      `yaml:"sandwich_window"`
	SandwichMaxSpread Duration `yaml:"sandwich_max_spread"`
	EventLogCapacity  int      `yaml:"event_log_capacity"`
	EventLogRetention Duration `yaml:"event_log_retention"`
}

// HealthThresholds tunes venue degradation classification.
type HealthThresholds struct {
	ResponseTime        Duration `yaml:"response_time"`
	FailureRate         float64  `yaml:"failure_rate"` // percent
	ConsecutiveFailures int      `yaml:"consecutive_failures"`
}

// BreakerConfig tunes the circuit breaker controller.
type BreakerConfig struct {
	RecoveryDuration Duration `yaml:"recovery_duration"`
}

// MitigationConfig toggles the countermeasures the dispatcher applies.
type MitigationConfig struct {
	PrivateRelay         bool `yaml:"private_relay"`
	Bundles              bool `yaml:"bundles"`
	RateLimiting         bool `yaml:"rate_limiting"`
	AlternativeVenue     bool `yaml:"alternative_venue"`
	CachedData           bool `yaml:"cached_data"`
	ReducedFunctionality bool `yaml:"reduced_functionality"`
	QueueSize            int  `yaml:"queue_size"`
}

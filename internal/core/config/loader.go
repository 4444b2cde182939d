package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.pruneInvalid()

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Detection.CacheCapacity == 0 {
		c.Detection.CacheCapacity = 1000
	}
	if c.Detection.CriticalGasDelta == 0 {
		c.Detection.CriticalGasDelta = 50
	}
	if c.Detection.SandwichWindow == 0 {
		c.Detection.SandwichWindow = 50
	}
	if c.Detection.SandwichMaxSpread == 0 {
		c.Detection.SandwichMaxSpread = Duration(10 * time.Second)
	}
	if c.Detection.EventLogCapacity == 0 {
		c.Detection.EventLogCapacity = 1000
	}
	if c.Detection.EventLogRetention == 0 {
		c.Detection.EventLogRetention = Duration(time.Hour)
	}

	if c.Health.ResponseTime == 0 {
		c.Health.ResponseTime = Duration(2000 * time.Millisecond)
	}
	if c.Health.FailureRate == 0 {
		c.Health.FailureRate = 30
	}
	if c.Health.ConsecutiveFailures == 0 {
		c.Health.ConsecutiveFailures = 5
	}

	if c.Breaker.RecoveryDuration == 0 {
		c.Breaker.RecoveryDuration = Duration(300 * time.Second)
	}

	if c.Mitigation.QueueSize == 0 {
		c.Mitigation.QueueSize = 256
	}

	for i := range c.Venues {
		if c.Venues[i].ProbeInterval == 0 {
			c.Venues[i].ProbeInterval = Duration(30 * time.Second)
		}
		if c.Venues[i].ProbeTimeout == 0 {
			c.Venues[i].ProbeTimeout = Duration(10 * time.Second)
		}
	}
}

// pruneInvalid disables misconfigured chains, venues and relays with a
// warning. A bad entity must not take down monitoring of the valid ones.
func (c *AppConfig) pruneInvalid() {
	chains := c.Chains[:0]
	for _, ch := range c.Chains {
		if ch.ChainID == "" {
			slog.Warn("Dropping chain config without id", "name", ch.Name)
			continue
		}
		chains = append(chains, ch)
	}
	c.Chains = chains

	venues := c.Venues[:0]
	for _, v := range c.Venues {
		if v.Name == "" || v.Endpoint == "" {
			slog.Warn("Dropping venue config missing name or endpoint", "name", v.Name)
			continue
		}
		venues = append(venues, v)
	}
	c.Venues = venues

	relays := c.Relays[:0]
	for _, r := range c.Relays {
		if r.Name == "" || r.URL == "" {
			slog.Warn("Dropping relay config missing name or url", "name", r.Name)
			continue
		}
		relays = append(relays, r)
	}
	c.Relays = relays
}

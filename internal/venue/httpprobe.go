package venue

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// probeHistory is a rolling record of recent probe outcomes for one venue.
type probeHistory struct {
	outcomes     []bool // true = success
	consecutive  int    // consecutive failures
	requestTimes []time.Time
}

// HTTPProbe samples venues over plain HTTP: a GET against the venue
// endpoint, latency from the round trip, failure rate and error count from
// a rolling window of recent probes.
type HTTPProbe struct {
	client    *http.Client
	endpoints map[string]string

	mu        sync.Mutex
	histories map[string]*probeHistory
	window    int
}

// NewHTTPProbe creates a probe for the given venue -> endpoint mapping.
func NewHTTPProbe(endpoints map[string]string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProbe{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoints: endpoints,
		histories: make(map[string]*probeHistory),
		window:    20,
	}
}

// Probe implements the Probe interface.
func (p *HTTPProbe) Probe(ctx context.Context, venue string) (domain.HealthSample, error) {
	endpoint, ok := p.endpoints[venue]
	if !ok {
		return domain.HealthSample{}, fmt.Errorf("no endpoint for venue %q", venue)
	}

	start := time.Now()
	ok = p.request(ctx, endpoint)
	latency := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.histories[venue]
	if h == nil {
		h = &probeHistory{}
		p.histories[venue] = h
	}

	h.outcomes = append(h.outcomes, ok)
	if len(h.outcomes) > p.window {
		h.outcomes = h.outcomes[1:]
	}
	if ok {
		h.consecutive = 0
	} else {
		h.consecutive++
	}

	now := time.Now()
	h.requestTimes = append(h.requestTimes, now)
	cutoff := now.Add(-time.Minute)
	for len(h.requestTimes) > 0 && h.requestTimes[0].Before(cutoff) {
		h.requestTimes = h.requestTimes[1:]
	}

	failures := 0
	for _, success := range h.outcomes {
		if !success {
			failures++
		}
	}

	return domain.HealthSample{
		Venue:             venue,
		ResponseTime:      latency,
		FailureRate:       float64(failures) / float64(len(h.outcomes)) * 100,
		RequestsPerSecond: float64(len(h.requestTimes)) / 60,
		ErrorCount:        h.consecutive,
		SampledAt:         now,
	}, nil
}

func (p *HTTPProbe) request(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

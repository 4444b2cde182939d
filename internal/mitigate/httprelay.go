package mitigate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// HTTPRelaySink submits bundles to relay endpoints over JSON-RPC.
type HTTPRelaySink struct {
	client   *http.Client
	selector *RelaySelector
}

// NewHTTPRelaySink creates a relay sink that resolves the endpoint through
// the selector's per-chain preference order.
func NewHTTPRelaySink(selector *RelaySelector, timeout time.Duration) *HTTPRelaySink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRelaySink{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		selector: selector,
	}
}

// SubmitBundle implements RelaySink.
func (s *HTTPRelaySink) SubmitBundle(ctx context.Context, chainID string, bundle domain.Bundle) error {
	relay, ok := s.selector.Select(chainID)
	if !ok {
		return fmt.Errorf("no enabled relay for chain %s", chainID)
	}

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  "eth_sendBundle",
		"params": []any{map[string]any{
			"txs":          bundle.TxHashes,
			"blockNumber":  fmt.Sprintf("0x%x", bundle.TargetBlock),
			"maxTimestamp": bundle.ValidUntil.Unix(),
		}},
		"id": 1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relay.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s: %w", relay.Name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay %s returned status %d", relay.Name, resp.StatusCode)
	}
	return nil
}

package mempool

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// RetryConfig defines retry behavior for endpoint calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// RPCStream yields pending transactions by polling a JSON-RPC endpoint with
// a pending-transaction filter. A hash whose details can no longer be
// fetched (already mined or evicted) is delivered as an empty envelope so
// the monitor can count the soft miss and move on.
type RPCStream struct {
	client       *http.Client
	urls         map[string]string
	pollInterval time.Duration
	retry        RetryConfig
	log          *slog.Logger
}

// NewRPCStream creates a stream over the given chain -> endpoint mapping.
func NewRPCStream(urls map[string]string, pollInterval time.Duration) *RPCStream {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &RPCStream{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		urls:         urls,
		pollInterval: pollInterval,
		retry:        DefaultRetryConfig,
		log:          slog.Default(),
	}
}

// Subscribe implements Stream.
func (s *RPCStream) Subscribe(ctx context.Context, chainID string) (<-chan domain.ObservedTransaction, error) {
	url, ok := s.urls[chainID]
	if !ok {
		return nil, ErrUnknownChain
	}

	var filterID string
	if err := s.callWithRetry(ctx, url, "eth_newPendingTransactionFilter", nil, &filterID); err != nil {
		return nil, fmt.Errorf("create pending filter: %w", err)
	}

	ch := make(chan domain.ObservedTransaction, 256)
	go s.poll(ctx, chainID, url, filterID, ch)
	return ch, nil
}

func (s *RPCStream) poll(ctx context.Context, chainID, url, filterID string, ch chan<- domain.ObservedTransaction) {
	defer close(ch)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var hashes []string
			if err := s.call(ctx, url, "eth_getFilterChanges", []any{filterID}, &hashes); err != nil {
				// Nodes expire idle filters. Recreate before giving up so a
				// brief lapse does not cost the whole subscription.
				if rerr := s.callWithRetry(ctx, url, "eth_newPendingTransactionFilter", nil, &filterID); rerr != nil {
					s.log.Warn("Filter poll failed, ending subscription", "chain", chainID, "error", err)
					return
				}
				s.log.Debug("Recreated pending transaction filter", "chain", chainID)
				continue
			}
			for _, hash := range hashes {
				tx, found := s.fetch(ctx, chainID, url, hash)
				if !found {
					// Mined or evicted before we could look it up.
					select {
					case ch <- domain.ObservedTransaction{}:
					case <-ctx.Done():
						return
					}
					continue
				}
				select {
				case ch <- tx:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// fetch looks up transaction details. found is false on any failure; the
// miss is best-effort by design, never retried.
func (s *RPCStream) fetch(ctx context.Context, chainID, url, hash string) (domain.ObservedTransaction, bool) {
	var raw struct {
		Hash     string `json:"hash"`
		From     string `json:"from"`
		To       string `json:"to"`
		Value    string `json:"value"`
		GasPrice string `json:"gasPrice"`
		Gas      string `json:"gas"`
		Input    string `json:"input"`
		Nonce    string `json:"nonce"`
	}
	if err := s.call(ctx, url, "eth_getTransactionByHash", []any{hash}, &raw); err != nil {
		s.log.Debug("Transaction lookup failed", "chain", chainID, "hash", hash, "error", err)
		return domain.ObservedTransaction{}, false
	}
	if raw.Hash == "" {
		return domain.ObservedTransaction{}, false
	}

	return domain.ObservedTransaction{
		Hash:       raw.Hash,
		ChainID:    chainID,
		From:       strings.ToLower(raw.From),
		To:         strings.ToLower(raw.To),
		Value:      weiToEther(raw.Value),
		GasPrice:   weiToGwei(raw.GasPrice),
		GasLimit:   hexToUint64(raw.Gas),
		Data:       hexToBytes(raw.Input),
		Nonce:      hexToUint64(raw.Nonce),
		ObservedAt: time.Now(),
	}, true
}

// callWithRetry executes a call with exponential backoff.
func (s *RPCStream) callWithRetry(ctx context.Context, url, method string, params []any, out any) error {
	var lastErr error

	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		err := s.call(ctx, url, method, params, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == s.retry.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff(attempt)):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", s.retry.MaxAttempts, lastErr)
}

func (s *RPCStream) backoff(attempt int) time.Duration {
	delay := float64(s.retry.InitialDelay) * math.Pow(s.retry.BackoffMultiple, float64(attempt))
	if delay > float64(s.retry.MaxDelay) {
		delay = float64(s.retry.MaxDelay)
	}
	return time.Duration(delay)
}

// call makes a single JSON-RPC call, decoding the result into out.
func (s *RPCStream) call(ctx context.Context, url, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if string(rpcResp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func hexToUint64(s string) uint64 {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0
	}
	return v.Uint64()
}

func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil
	}
	return b
}

func weiToEther(s string) float64 {
	wei, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return f
}

func weiToGwei(s string) uint64 {
	wei, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0
	}
	return new(big.Int).Div(wei, big.NewInt(1e9)).Uint64()
}

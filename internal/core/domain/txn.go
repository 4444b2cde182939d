package domain

import "time"

// ObservedTransaction is a pending transaction seen in a chain's mempool.
// Immutable once created; owned by the cache that stores it.
type ObservedTransaction struct {
	Hash       string    `json:"hash"`
	ChainID    string    `json:"chain_id"`
	From       string    `json:"from_address"`
	To         string    `json:"to_address"`
	Value      float64   `json:"value"`
	GasPrice   uint64    `json:"gas_price"` // gwei
	GasLimit   uint64    `json:"gas_limit"`
	Data       []byte    `json:"data"`
	Nonce      uint64    `json:"nonce"`
	ObservedAt time.Time `json:"observed_at"`
}

// Selector returns the 4-byte function selector from the call data,
// or nil when the data is too short to carry one.
func (t *ObservedTransaction) Selector() []byte {
	if len(t.Data) < 4 {
		return nil
	}
	return t.Data[:4]
}

// IsEmpty reports whether the envelope carries no usable payload. Stream
// sources emit these when a pending transaction was mined or evicted before
// its details could be fetched.
func (t *ObservedTransaction) IsEmpty() bool {
	return t.Hash == ""
}

package domain

import "time"

// Bundle is an ordered group of transaction references submitted to a
// private relay for inclusion in a specific block.
type Bundle struct {
	ID          string    `json:"id"`
	ChainID     string    `json:"chain_id"`
	TxHashes    []string  `json:"tx_hashes"`
	TargetBlock uint64    `json:"target_block"`
	ValidUntil  time.Time `json:"valid_until"`
	CreatedAt   time.Time `json:"created_at"`
}

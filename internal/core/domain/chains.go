package domain

// Well-known chain IDs used in relay preference rules.
const (
	ChainIDEthereum = "1"
	ChainIDPolygon  = "137"
	ChainIDArbitrum = "42161"
)

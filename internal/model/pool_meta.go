package model

// PoolMeta captures the immutable pool fields attached to decoded events.
type PoolMeta struct {
	MintX  string `json:"mint_x"`
	MintY  string `json:"mint_y"`
	FeeBps uint16 `json:"fee_bps"`
	Seed   uint64 `json:"seed"`
}

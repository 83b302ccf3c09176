package model

import "time"

// PoolRecord is the persisted form of a pool. Identities are base58 strings.
type PoolRecord struct {
	Address     string    `json:"address"`
	ProgramID   string    `json:"program_id"`
	Seed        uint64    `json:"seed"`
	MintX       string    `json:"mint_x"`
	MintY       string    `json:"mint_y"`
	FeeBps      uint16    `json:"fee_bps"`
	Authority   string    `json:"authority,omitempty"`
	ConfigBump  uint8     `json:"config_bump"`
	LPMint      string    `json:"lp_mint"`
	LPMintBump  uint8     `json:"lp_mint_bump"`
	VaultX      string    `json:"vault_x"`
	VaultY      string    `json:"vault_y"`
	ReserveX    uint64    `json:"reserve_x"`
	ReserveY    uint64    `json:"reserve_y"`
	TotalShares uint64    `json:"total_shares"`
	Locked      bool      `json:"locked"`
	Version     uint64    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ShareBalance is the number of pool shares held by one owner.
type ShareBalance struct {
	Pool   string `json:"pool"`
	Owner  string `json:"owner"`
	Shares uint64 `json:"shares"`
}

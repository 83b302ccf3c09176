package model

// Event names as they appear in the journal.
const (
	EventInitialize = "Initialize"
	EventDeposit    = "Deposit"
	EventSwap       = "Swap"
	EventWithdraw   = "Withdraw"
	EventLock       = "Lock"
)

// InitializeEventData is the decoded Initialize event payload.
type InitializeEventData struct {
	Authority string `json:"authority,omitempty"`
	MintX     string `json:"mint_x"`
	MintY     string `json:"mint_y"`
	Seed      uint64 `json:"seed"`
	FeeBps    uint16 `json:"fee_bps"`
	LPMint    string `json:"lp_mint"`
	VaultX    string `json:"vault_x"`
	VaultY    string `json:"vault_y"`
}

// DepositEventData is the decoded Deposit event payload. Reserve fields hold
// the pool state after the deposit.
type DepositEventData struct {
	Owner       string `json:"owner"`
	Shares      string `json:"shares"`
	AmountX     string `json:"amount_x"`
	AmountY     string `json:"amount_y"`
	ReserveX    string `json:"reserve_x"`
	ReserveY    string `json:"reserve_y"`
	TotalShares string `json:"total_shares"`
}

// SwapEventData is the decoded Swap event payload.
type SwapEventData struct {
	Owner       string `json:"owner"`
	XToY        bool   `json:"x_to_y"`
	AmountIn    string `json:"amount_in"`
	AmountInNet string `json:"amount_in_net"`
	AmountOut   string `json:"amount_out"`
	ReserveX    string `json:"reserve_x"`
	ReserveY    string `json:"reserve_y"`
}

// WithdrawEventData is the decoded Withdraw event payload.
type WithdrawEventData struct {
	Owner       string `json:"owner"`
	Shares      string `json:"shares"`
	AmountX     string `json:"amount_x"`
	AmountY     string `json:"amount_y"`
	ReserveX    string `json:"reserve_x"`
	ReserveY    string `json:"reserve_y"`
	TotalShares string `json:"total_shares"`
}

// LockEventData is the decoded Lock event payload.
type LockEventData struct {
	Authority string `json:"authority"`
	Locked    bool   `json:"locked"`
}

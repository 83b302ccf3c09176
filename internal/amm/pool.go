// Package amm implements the accounting engine of a two-asset constant
// product pool: reserves, liquidity shares, pricing with fees, and the
// invariants that keep the pool solvent.
//
// Every mutating operation works on a copy of the pool state, checks it
// before and after the change, and only then replaces the live state. A
// failed operation leaves the pool exactly as it was.
package amm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Config is the immutable part of a pool, fixed at initialization.
type Config struct {
	ProgramID solana.PublicKey  `json:"program_id"`
	Seed      uint64            `json:"seed"`
	MintX     solana.PublicKey  `json:"mint_x"`
	MintY     solana.PublicKey  `json:"mint_y"`
	FeeBps    uint16            `json:"fee_bps"`
	Authority *solana.PublicKey `json:"authority,omitempty"`
	Addresses Addresses         `json:"addresses"`
}

// State is the mutable part of a pool.
type State struct {
	ReserveX    uint64 `json:"reserve_x"`
	ReserveY    uint64 `json:"reserve_y"`
	TotalShares uint64 `json:"total_shares"`
	Locked      bool   `json:"locked"`
}

// K returns reserve_x * reserve_y.
func (s State) K() *uint256.Int {
	return product(s.ReserveX, s.ReserveY)
}

// Empty reports whether the pool has not received its first deposit, or has
// been fully withdrawn.
func (s State) Empty() bool {
	return s.TotalShares == 0 && s.ReserveX == 0 && s.ReserveY == 0
}

// Pool is the authoritative record for one (seed, asset pair).
type Pool struct {
	Config Config `json:"config"`
	State  State  `json:"state"`
}

// InitParams are the creator-supplied parameters of a new pool.
type InitParams struct {
	ProgramID solana.PublicKey
	Seed      uint64
	MintX     solana.PublicKey
	MintY     solana.PublicKey
	FeeBps    uint16
	Authority *solana.PublicKey
}

// Initialize builds a new pool with empty reserves. Uniqueness of the
// (seed, asset pair) is enforced by whoever persists the pool.
func Initialize(params InitParams) (*Pool, error) {
	if params.FeeBps > BasisPoints {
		return nil, ErrInvalidFee.Wrapf("fee %d bps exceeds %d", params.FeeBps, BasisPoints)
	}
	if params.MintX.IsZero() || params.MintY.IsZero() {
		return nil, ErrInvalidAssetPair.Wrap("asset identifier is empty")
	}
	if params.MintX.Equals(params.MintY) {
		return nil, ErrInvalidAssetPair.Wrapf("both assets are %s", params.MintX)
	}

	addrs, err := Derive(params.ProgramID, params.Seed, params.MintX, params.MintY)
	if err != nil {
		return nil, err
	}

	var authority *solana.PublicKey
	if params.Authority != nil {
		a := *params.Authority
		authority = &a
	}

	return &Pool{
		Config: Config{
			ProgramID: params.ProgramID,
			Seed:      params.Seed,
			MintX:     params.MintX,
			MintY:     params.MintY,
			FeeBps:    params.FeeBps,
			Authority: authority,
			Addresses: addrs,
		},
	}, nil
}

// Clone returns a deep copy of p.
func (p *Pool) Clone() *Pool {
	c := *p
	if p.Config.Authority != nil {
		a := *p.Config.Authority
		c.Config.Authority = &a
	}
	return &c
}

// Deposit mints lpAmount shares against a proportional contribution bounded
// by maxX and maxY. On the first deposit maxX and maxY are the exact amounts
// contributed and set the pool's initial price.
func (p *Pool) Deposit(lpAmount, maxX, maxY uint64) (DepositQuote, error) {
	if err := checkPre(p.State); err != nil {
		return DepositQuote{}, err
	}
	quote, err := QuoteDeposit(p.State, lpAmount, maxX, maxY)
	if err != nil {
		return DepositQuote{}, err
	}
	next, err := quote.apply(p.State)
	if err != nil {
		return DepositQuote{}, err
	}
	if err := CheckLiquidityTransition(p.State, next); err != nil {
		return DepositQuote{}, err
	}
	p.State = next
	return quote, nil
}

// Withdraw burns lpAmount shares held by a caller whose balance is
// callerShares and pays out the proportional slice of both reserves.
func (p *Pool) Withdraw(lpAmount, minX, minY, callerShares uint64) (WithdrawQuote, error) {
	if err := checkPre(p.State); err != nil {
		return WithdrawQuote{}, err
	}
	quote, err := QuoteWithdraw(p.State, lpAmount, minX, minY, callerShares)
	if err != nil {
		return WithdrawQuote{}, err
	}
	next, err := quote.apply(p.State)
	if err != nil {
		return WithdrawQuote{}, err
	}
	if err := CheckLiquidityTransition(p.State, next); err != nil {
		return WithdrawQuote{}, err
	}
	p.State = next
	return quote, nil
}

// Swap exchanges amountIn of one asset for the other at the constant product
// price, net of the pool fee.
func (p *Pool) Swap(xToY bool, amountIn, minAmountOut uint64) (SwapQuote, error) {
	if err := checkPre(p.State); err != nil {
		return SwapQuote{}, err
	}
	quote, err := QuoteSwap(p.State, p.Config.FeeBps, xToY, amountIn, minAmountOut)
	if err != nil {
		return SwapQuote{}, err
	}
	next, err := quote.apply(p.State)
	if err != nil {
		return SwapQuote{}, err
	}
	if err := CheckSwapTransition(p.State, next); err != nil {
		return SwapQuote{}, err
	}
	p.State = next
	return quote, nil
}

// SetLocked toggles the pause flag. Only the configured authority may call
// it, and it is allowed while the pool is locked.
func (p *Pool) SetLocked(caller solana.PublicKey, locked bool) error {
	if p.Config.Authority == nil {
		return ErrUnauthorized.Wrap("pool has no authority")
	}
	if !p.Config.Authority.Equals(caller) {
		return ErrUnauthorized.Wrapf("caller %s", caller)
	}
	p.State.Locked = locked
	return nil
}

package amm

// DepositQuote is the effect of minting Shares: the amounts the depositor
// contributes to each reserve.
type DepositQuote struct {
	Shares  uint64 `json:"shares"`
	AmountX uint64 `json:"amount_x"`
	AmountY uint64 `json:"amount_y"`
	Initial bool   `json:"initial"`
}

// QuoteDeposit computes the contribution required to mint lpAmount shares.
//
// On an empty pool the contribution is exactly (maxX, maxY) and lpAmount may
// not exceed their geometric mean. Otherwise each side is
// ceil(lpAmount * reserve / totalShares) and must fit within its bound.
func QuoteDeposit(s State, lpAmount, maxX, maxY uint64) (DepositQuote, error) {
	if lpAmount == 0 {
		return DepositQuote{}, ErrZeroAmount.Wrap("lp amount")
	}
	if maxX == 0 || maxY == 0 {
		return DepositQuote{}, ErrZeroAmount.Wrapf("deposit bounds (%d, %d)", maxX, maxY)
	}

	if s.TotalShares == 0 {
		if limit := geometricMean(maxX, maxY); lpAmount > limit {
			return DepositQuote{}, ErrSlippageExceeded.Wrapf("initial shares %d exceed geometric mean %d", lpAmount, limit)
		}
		return DepositQuote{Shares: lpAmount, AmountX: maxX, AmountY: maxY, Initial: true}, nil
	}

	amountX, err := mulDivCeil(lpAmount, s.ReserveX, s.TotalShares)
	if err != nil {
		return DepositQuote{}, err
	}
	amountY, err := mulDivCeil(lpAmount, s.ReserveY, s.TotalShares)
	if err != nil {
		return DepositQuote{}, err
	}
	if amountX > maxX || amountY > maxY {
		return DepositQuote{}, ErrSlippageExceeded.Wrapf("requires (%d, %d), bounds (%d, %d)", amountX, amountY, maxX, maxY)
	}
	return DepositQuote{Shares: lpAmount, AmountX: amountX, AmountY: amountY}, nil
}

func (q DepositQuote) apply(s State) (State, error) {
	var err error
	if s.ReserveX, err = addU64(s.ReserveX, q.AmountX); err != nil {
		return State{}, err
	}
	if s.ReserveY, err = addU64(s.ReserveY, q.AmountY); err != nil {
		return State{}, err
	}
	if s.TotalShares, err = addU64(s.TotalShares, q.Shares); err != nil {
		return State{}, err
	}
	return s, nil
}

// WithdrawQuote is the effect of burning Shares: the amounts paid out of
// each reserve.
type WithdrawQuote struct {
	Shares  uint64 `json:"shares"`
	AmountX uint64 `json:"amount_x"`
	AmountY uint64 `json:"amount_y"`
}

// QuoteWithdraw computes the payout for burning lpAmount shares out of a
// balance of callerShares. Payouts round down.
func QuoteWithdraw(s State, lpAmount, minX, minY, callerShares uint64) (WithdrawQuote, error) {
	if lpAmount == 0 {
		return WithdrawQuote{}, ErrZeroAmount.Wrap("lp amount")
	}
	if lpAmount > s.TotalShares {
		return WithdrawQuote{}, ErrInsufficientLiquidity.Wrapf("burning %d of %d outstanding shares", lpAmount, s.TotalShares)
	}
	if lpAmount > callerShares {
		return WithdrawQuote{}, ErrInsufficientLiquidity.Wrapf("burning %d shares with a balance of %d", lpAmount, callerShares)
	}

	amountX, err := mulDivFloor(lpAmount, s.ReserveX, s.TotalShares)
	if err != nil {
		return WithdrawQuote{}, err
	}
	amountY, err := mulDivFloor(lpAmount, s.ReserveY, s.TotalShares)
	if err != nil {
		return WithdrawQuote{}, err
	}
	if amountX < minX || amountY < minY {
		return WithdrawQuote{}, ErrSlippageExceeded.Wrapf("pays (%d, %d), bounds (%d, %d)", amountX, amountY, minX, minY)
	}
	return WithdrawQuote{Shares: lpAmount, AmountX: amountX, AmountY: amountY}, nil
}

func (q WithdrawQuote) apply(s State) (State, error) {
	var err error
	if s.ReserveX, err = subU64(s.ReserveX, q.AmountX); err != nil {
		return State{}, err
	}
	if s.ReserveY, err = subU64(s.ReserveY, q.AmountY); err != nil {
		return State{}, err
	}
	if s.TotalShares, err = subU64(s.TotalShares, q.Shares); err != nil {
		return State{}, err
	}
	return s, nil
}

package amm

import "github.com/holiman/uint256"

// SwapQuote is the effect of a swap in the chosen direction.
type SwapQuote struct {
	XToY        bool   `json:"x_to_y"`
	AmountIn    uint64 `json:"amount_in"`
	AmountInNet uint64 `json:"amount_in_net"`
	Fee         uint64 `json:"fee"`
	AmountOut   uint64 `json:"amount_out"`
}

// QuoteSwap prices amountIn against the pool reserves.
func QuoteSwap(s State, feeBps uint16, xToY bool, amountIn, minAmountOut uint64) (SwapQuote, error) {
	if amountIn == 0 {
		return SwapQuote{}, ErrZeroAmount.Wrap("amount in")
	}
	reserveIn, reserveOut := s.ReserveX, s.ReserveY
	if !xToY {
		reserveIn, reserveOut = s.ReserveY, s.ReserveX
	}
	if reserveIn == 0 || reserveOut == 0 {
		return SwapQuote{}, ErrInsufficientLiquidity.Wrapf("reserves (%d, %d)", s.ReserveX, s.ReserveY)
	}
	if _, err := addU64(reserveIn, amountIn); err != nil {
		return SwapQuote{}, err
	}

	net, out, err := SwapOutput(reserveIn, reserveOut, amountIn, feeBps)
	if err != nil {
		return SwapQuote{}, err
	}
	if out == 0 {
		return SwapQuote{}, ErrZeroAmount.Wrapf("%d in yields no output", amountIn)
	}
	if out >= reserveOut {
		return SwapQuote{}, ErrInsufficientLiquidity.Wrapf("output %d would drain reserve %d", out, reserveOut)
	}
	if out < minAmountOut {
		return SwapQuote{}, ErrSlippageExceeded.Wrapf("output %d below minimum %d", out, minAmountOut)
	}

	return SwapQuote{
		XToY:        xToY,
		AmountIn:    amountIn,
		AmountInNet: net,
		Fee:         amountIn - net,
		AmountOut:   out,
	}, nil
}

// SwapOutput is the constant product formula:
//
//	net = floor(amountIn * (10000 - feeBps) / 10000)
//	out = reserveOut - ceil(reserveIn * reserveOut / (reserveIn + net))
//
// The output rounds down and the retained reserve rounds up, so
// (reserveIn + net) * (reserveOut - out) >= reserveIn * reserveOut.
func SwapOutput(reserveIn, reserveOut, amountIn uint64, feeBps uint16) (net uint64, out uint64, err error) {
	if feeBps > BasisPoints {
		return 0, 0, ErrInvalidFee.Wrapf("fee %d bps exceeds %d", feeBps, BasisPoints)
	}
	net, err = mulDivFloor(amountIn, BasisPoints-uint64(feeBps), BasisPoints)
	if err != nil {
		return 0, 0, err
	}
	if reserveIn == 0 && net == 0 {
		return net, 0, nil
	}

	k := product(reserveIn, reserveOut)
	den := new(uint256.Int).AddUint64(uint256.NewInt(reserveIn), net)
	kept := new(uint256.Int).Div(k, den)
	if !new(uint256.Int).Mod(k, den).IsZero() {
		kept.AddUint64(kept, 1)
	}
	if !kept.IsUint64() || kept.Uint64() > reserveOut {
		return 0, 0, ErrArithmeticOverflow.Wrapf("retained reserve %s exceeds %d", kept.Dec(), reserveOut)
	}
	return net, reserveOut - kept.Uint64(), nil
}

func (q SwapQuote) apply(s State) (State, error) {
	in, out := &s.ReserveX, &s.ReserveY
	if !q.XToY {
		in, out = &s.ReserveY, &s.ReserveX
	}
	var err error
	if *in, err = addU64(*in, q.AmountIn); err != nil {
		return State{}, err
	}
	if *out, err = subU64(*out, q.AmountOut); err != nil {
		return State{}, err
	}
	return s, nil
}

package amm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwapOutput(t *testing.T) {
	cases := []struct {
		name             string
		reserveIn        uint64
		reserveOut       uint64
		amountIn         uint64
		fee              uint16
		wantNet, wantOut uint64
	}{
		{name: "fee 200", reserveIn: 10000, reserveOut: 50000, amountIn: 1000, fee: 200, wantNet: 980, wantOut: 4462},
		{name: "no fee", reserveIn: 10000, reserveOut: 50000, amountIn: 1000, fee: 0, wantNet: 1000, wantOut: 4545},
		{name: "full fee", reserveIn: 10000, reserveOut: 50000, amountIn: 1000, fee: 10000, wantNet: 0, wantOut: 0},
		{name: "small trade", reserveIn: 1000, reserveOut: 1000, amountIn: 10, fee: 30, wantNet: 9, wantOut: 8},
		{name: "dust", reserveIn: 1_000_000, reserveOut: 1_000, amountIn: 500, fee: 30, wantNet: 498, wantOut: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			net, out, err := SwapOutput(tc.reserveIn, tc.reserveOut, tc.amountIn, tc.fee)
			require.NoError(t, err)
			require.Equal(t, tc.wantNet, net)
			require.Equal(t, tc.wantOut, out)
		})
	}
}

func TestSwapOutputRejectsFee(t *testing.T) {
	_, _, err := SwapOutput(100, 100, 10, 10_001)
	require.ErrorIs(t, err, ErrInvalidFee)
}

func TestQuoteSwapErrors(t *testing.T) {
	funded := State{ReserveX: 10000, ReserveY: 50000, TotalShares: 8000}

	cases := []struct {
		name    string
		state   State
		fee     uint16
		xToY    bool
		in, min uint64
		want    error
	}{
		{name: "zero input", state: funded, fee: 30, xToY: true, in: 0, want: ErrZeroAmount},
		{name: "empty pool", state: State{}, fee: 30, xToY: true, in: 10, want: ErrInsufficientLiquidity},
		{name: "output rounds to zero", state: State{ReserveX: 1_000_000, ReserveY: 1_000, TotalShares: 1}, fee: 30, xToY: true, in: 500, want: ErrZeroAmount},
		{name: "full fee", state: funded, fee: 10_000, xToY: true, in: 1000, want: ErrZeroAmount},
		{name: "below minimum", state: funded, fee: 200, xToY: true, in: 1000, min: 4463, want: ErrSlippageExceeded},
		{name: "reserve overflow", state: State{ReserveX: math.MaxUint64 - 5, ReserveY: 1000, TotalShares: 1}, fee: 30, xToY: true, in: 10, want: ErrArithmeticOverflow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteSwap(tc.state, tc.fee, tc.xToY, tc.in, tc.min)
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsUserError(err))
		})
	}
}

func TestSwapYToX(t *testing.T) {
	pool := newTestPool(t, 200)
	_, err := pool.Deposit(8000, 10000, 50000)
	require.NoError(t, err)

	q, err := pool.Swap(false, 5000, 0)
	require.NoError(t, err)
	// net 4900, kept ceil(5e8/54900) = 9108
	require.Equal(t, uint64(4900), q.AmountInNet)
	require.Equal(t, uint64(892), q.AmountOut)
	require.Equal(t, State{ReserveX: 9108, ReserveY: 55000, TotalShares: 8000}, pool.State)
}

func TestSwapNeverDrainsReserve(t *testing.T) {
	pool := newTestPool(t, 0)
	_, err := pool.Deposit(1, 1, 1)
	require.NoError(t, err)

	_, err = pool.Swap(true, math.MaxUint64-1, 0)
	if !errors.Is(err, ErrZeroAmount) && !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected the swap to be rejected, got %v", err)
	}
	require.Equal(t, State{ReserveX: 1, ReserveY: 1, TotalShares: 1}, pool.State)
}

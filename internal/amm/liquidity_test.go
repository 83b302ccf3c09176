package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteDepositInitial(t *testing.T) {
	q, err := QuoteDeposit(State{}, 22360, 10000, 50000)
	require.NoError(t, err)
	require.Equal(t, DepositQuote{Shares: 22360, AmountX: 10000, AmountY: 50000, Initial: true}, q)

	_, err = QuoteDeposit(State{}, 22361, 10000, 50000)
	require.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestQuoteDepositProportional(t *testing.T) {
	s := State{ReserveX: 10000, ReserveY: 50000, TotalShares: 8000}

	q, err := QuoteDeposit(s, 800, 1000, 5000)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), q.AmountX)
	require.Equal(t, uint64(5000), q.AmountY)
	require.False(t, q.Initial)

	// 3*10000/8000 = 3.75 and 3*50000/8000 = 18.75 round up
	q, err = QuoteDeposit(s, 3, 100, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(4), q.AmountX)
	require.Equal(t, uint64(19), q.AmountY)

	_, err = QuoteDeposit(s, 3, 3, 100)
	require.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestQuoteDepositErrors(t *testing.T) {
	cases := []struct {
		name           string
		state          State
		lp, maxX, maxY uint64
		want           error
	}{
		{name: "zero lp", state: State{}, lp: 0, maxX: 10, maxY: 10, want: ErrZeroAmount},
		{name: "zero bound", state: State{}, lp: 1, maxX: 0, maxY: 10, want: ErrZeroAmount},
		{name: "wide product", state: State{ReserveX: math.MaxUint64, ReserveY: 1, TotalShares: 1}, lp: 2, maxX: math.MaxUint64, maxY: math.MaxUint64, want: ErrArithmeticOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteDeposit(tc.state, tc.lp, tc.maxX, tc.maxY)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDepositReserveOverflow(t *testing.T) {
	pool := newTestPool(t, 30)
	pool.State = State{ReserveX: math.MaxUint64 - 1, ReserveY: 10, TotalShares: 10}
	before := pool.State

	_, err := pool.Deposit(10, math.MaxUint64, math.MaxUint64)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
	require.Equal(t, before, pool.State)
}

func TestQuoteWithdraw(t *testing.T) {
	s := State{ReserveX: 11000, ReserveY: 45538, TotalShares: 8000}

	q, err := QuoteWithdraw(s, 5000, 0, 0, 8000)
	require.NoError(t, err)
	require.Equal(t, WithdrawQuote{Shares: 5000, AmountX: 6875, AmountY: 28461}, q)

	cases := []struct {
		name                   string
		lp, minX, minY, shares uint64
		want                   error
	}{
		{name: "zero lp", lp: 0, shares: 8000, want: ErrZeroAmount},
		{name: "more than outstanding", lp: 8001, shares: 9000, want: ErrInsufficientLiquidity},
		{name: "more than balance", lp: 100, shares: 99, want: ErrInsufficientLiquidity},
		{name: "below minimum", lp: 5000, minX: 9166, minY: 37981, shares: 8000, want: ErrSlippageExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteWithdraw(s, tc.lp, tc.minX, tc.minY, tc.shares)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWithdrawFromEmptyPool(t *testing.T) {
	pool := newTestPool(t, 30)
	_, err := pool.Withdraw(1, 0, 0, 1)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	require.True(t, pool.State.Empty())
}

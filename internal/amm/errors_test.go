package amm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	cases := map[error]string{
		nil:                                  "ok",
		ErrInvalidFee:                        "invalid_fee",
		ErrAlreadyInitialized.Wrap("seed 1"): "already_initialized",
		ErrPoolLocked:                        "pool_locked",
		ErrSlippageExceeded.Wrapf("%d", 1):   "slippage_exceeded",
		ErrInsufficientLiquidity:             "insufficient_liquidity",
		ErrZeroAmount:                        "zero_amount",
		ErrArithmeticOverflow:                "arithmetic_overflow",
		ErrInvariantViolation:                "invariant_violation",
		ErrUnauthorized:                      "unauthorized",
		ErrInvalidAssetPair:                  "invalid_asset_pair",
		errors.New("disk full"):              "internal",
	}
	for err, want := range cases {
		require.Equal(t, want, Kind(err), "%v", err)
	}
}

func TestIsUserError(t *testing.T) {
	require.False(t, IsUserError(nil))
	require.False(t, IsUserError(errors.New("disk full")))
	require.False(t, IsUserError(ErrInvariantViolation.Wrap("k decreased")))
	require.True(t, IsUserError(ErrPoolLocked))
	require.True(t, IsUserError(fmt.Errorf("swap: %w", ErrSlippageExceeded.Wrap("output 1 below 2"))))
}

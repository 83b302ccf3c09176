package amm

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace for pool accounting failures.
const Codespace = "amm"

var (
	ErrInvalidFee            = errorsmod.Register(Codespace, 1, "invalid fee")
	ErrAlreadyInitialized    = errorsmod.Register(Codespace, 2, "pool already initialized")
	ErrPoolLocked            = errorsmod.Register(Codespace, 3, "pool is locked")
	ErrSlippageExceeded      = errorsmod.Register(Codespace, 4, "slippage exceeded")
	ErrInsufficientLiquidity = errorsmod.Register(Codespace, 5, "insufficient liquidity")
	ErrZeroAmount            = errorsmod.Register(Codespace, 6, "amount cannot be zero")
	ErrArithmeticOverflow    = errorsmod.Register(Codespace, 7, "arithmetic overflow")
	ErrInvariantViolation    = errorsmod.Register(Codespace, 8, "pool invariant violated")
	ErrUnauthorized          = errorsmod.Register(Codespace, 9, "caller is not the pool authority")
	ErrInvalidAssetPair      = errorsmod.Register(Codespace, 10, "invalid asset pair")
)

// IsUserError reports whether err is a failure the caller can correct by
// resubmitting with different inputs. Invariant violations are logic defects
// and never count as user errors.
func IsUserError(err error) bool {
	if err == nil || errors.Is(err, ErrInvariantViolation) {
		return false
	}
	for _, kind := range []error{
		ErrInvalidFee,
		ErrAlreadyInitialized,
		ErrPoolLocked,
		ErrSlippageExceeded,
		ErrInsufficientLiquidity,
		ErrZeroAmount,
		ErrArithmeticOverflow,
		ErrUnauthorized,
		ErrInvalidAssetPair,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Kind returns the short name of the taxonomy entry err belongs to, or
// "internal" when err is not part of it.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidFee):
		return "invalid_fee"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrPoolLocked):
		return "pool_locked"
	case errors.Is(err, ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAssetPair):
		return "invalid_asset_pair"
	default:
		return "internal"
	}
}

package amm

import (
	gmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// BasisPoints is the fee denominator.
const BasisPoints = 10_000

func addU64(x, y uint64) (uint64, error) {
	sum, overflow := gmath.SafeAdd(x, y)
	if overflow {
		return 0, ErrArithmeticOverflow.Wrapf("%d + %d", x, y)
	}
	return sum, nil
}

func subU64(x, y uint64) (uint64, error) {
	diff, overflow := gmath.SafeSub(x, y)
	if overflow {
		return 0, ErrArithmeticOverflow.Wrapf("%d - %d", x, y)
	}
	return diff, nil
}

// product returns x*y at full 128-bit width.
func product(x, y uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
}

// mulDivFloor returns floor(x*y/d).
func mulDivFloor(x, y, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrArithmeticOverflow.Wrap("division by zero")
	}
	q := new(uint256.Int).Div(product(x, y), uint256.NewInt(d))
	if !q.IsUint64() {
		return 0, ErrArithmeticOverflow.Wrapf("%d * %d / %d exceeds 64 bits", x, y, d)
	}
	return q.Uint64(), nil
}

// mulDivCeil returns ceil(x*y/d).
func mulDivCeil(x, y, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrArithmeticOverflow.Wrap("division by zero")
	}
	p := product(x, y)
	den := uint256.NewInt(d)
	q := new(uint256.Int).Div(p, den)
	if !new(uint256.Int).Mod(p, den).IsZero() {
		q.AddUint64(q, 1)
	}
	if !q.IsUint64() {
		return 0, ErrArithmeticOverflow.Wrapf("%d * %d / %d exceeds 64 bits", x, y, d)
	}
	return q.Uint64(), nil
}

// geometricMean returns floor(sqrt(x*y)); the result always fits 64 bits.
func geometricMean(x, y uint64) uint64 {
	return new(uint256.Int).Sqrt(product(x, y)).Uint64()
}

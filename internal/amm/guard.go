package amm

import "github.com/holiman/uint256"

// checkPre runs before every mutating operation except the lock toggle.
func checkPre(s State) error {
	if s.Locked {
		return ErrPoolLocked
	}
	return CheckState(s)
}

// CheckState verifies the shape of a single pool state: shares are
// outstanding exactly when both reserves are positive.
func CheckState(s State) error {
	if s.TotalShares == 0 {
		if s.ReserveX != 0 || s.ReserveY != 0 {
			return ErrInvariantViolation.Wrapf("no shares outstanding but reserves are (%d, %d)", s.ReserveX, s.ReserveY)
		}
		return nil
	}
	if s.ReserveX == 0 || s.ReserveY == 0 {
		return ErrInvariantViolation.Wrapf("%d shares outstanding but reserves are (%d, %d)", s.TotalShares, s.ReserveX, s.ReserveY)
	}
	return nil
}

// CheckLiquidityTransition verifies a deposit or withdraw: the resulting state
// is well formed, the lock flag is untouched, and the reserve backing each
// share did not decrease on either side.
func CheckLiquidityTransition(before, after State) error {
	if err := CheckState(after); err != nil {
		return err
	}
	if before.Locked != after.Locked {
		return ErrInvariantViolation.Wrap("lock flag changed")
	}
	if before.TotalShares == 0 || after.TotalShares == 0 {
		return nil
	}
	if perShareDecreased(before.ReserveX, before.TotalShares, after.ReserveX, after.TotalShares) {
		return ErrInvariantViolation.Wrapf("x per share fell: %d/%d -> %d/%d",
			before.ReserveX, before.TotalShares, after.ReserveX, after.TotalShares)
	}
	if perShareDecreased(before.ReserveY, before.TotalShares, after.ReserveY, after.TotalShares) {
		return ErrInvariantViolation.Wrapf("y per share fell: %d/%d -> %d/%d",
			before.ReserveY, before.TotalShares, after.ReserveY, after.TotalShares)
	}
	return nil
}

// CheckSwapTransition verifies a swap: shares and lock flag are untouched,
// both reserves stay positive, and k did not decrease.
func CheckSwapTransition(before, after State) error {
	if err := CheckState(after); err != nil {
		return err
	}
	if before.TotalShares != after.TotalShares {
		return ErrInvariantViolation.Wrapf("swap changed total shares %d -> %d", before.TotalShares, after.TotalShares)
	}
	if before.Locked != after.Locked {
		return ErrInvariantViolation.Wrap("lock flag changed")
	}
	if after.ReserveX == 0 || after.ReserveY == 0 {
		return ErrInvariantViolation.Wrapf("swap drained a reserve: (%d, %d)", after.ReserveX, after.ReserveY)
	}
	if after.K().Lt(before.K()) {
		return ErrInvariantViolation.Wrapf("k decreased: %s -> %s", before.K().Dec(), after.K().Dec())
	}
	return nil
}

// perShareDecreased reports whether r1/s1 < r0/s0.
func perShareDecreased(r0, s0, r1, s1 uint64) bool {
	lhs := new(uint256.Int).Mul(uint256.NewInt(r1), uint256.NewInt(s0))
	rhs := new(uint256.Int).Mul(uint256.NewInt(r0), uint256.NewInt(s1))
	return lhs.Lt(rhs)
}

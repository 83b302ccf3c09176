package stats

import (
	"math/big"
	"time"
)

const ratioScale = 18

func computeFeeRates(feeX, feeY, reserveX, reserveY *big.Int) (*string, *string) {
	var rateX, rateY *string
	if rate := computeRate(feeX, reserveX); rate != "" {
		rateX = &rate
	}
	if rate := computeRate(feeY, reserveY); rate != "" {
		rateY = &rate
	}
	return rateX, rateY
}

func computeRate(fee, reserve *big.Int) string {
	if fee == nil || fee.Sign() == 0 || reserve == nil || reserve.Sign() == 0 {
		return ""
	}
	return new(big.Rat).SetFrac(fee, reserve).FloatString(ratioScale)
}

// computeAPR annualizes the window fee rate. Rates on both sides are summed,
// each being a fraction of its own reserve.
func computeAPR(rateX, rateY *string, windowSeconds uint64) *string {
	if windowSeconds == 0 || (rateX == nil && rateY == nil) {
		return nil
	}
	total := new(big.Rat)
	for _, rate := range []*string{rateX, rateY} {
		if rate == nil {
			continue
		}
		r, ok := new(big.Rat).SetString(*rate)
		if !ok {
			return nil
		}
		total.Add(total, r)
	}
	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	apr := new(big.Rat).Mul(total, yearSeconds)
	apr.Quo(apr, big.NewRat(int64(windowSeconds), 1))
	val := apr.FloatString(ratioScale)
	return &val
}

func windowStart(ts, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func optionalBigString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

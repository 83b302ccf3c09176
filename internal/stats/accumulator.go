package stats

import (
	"encoding/json"
	"fmt"
	"math/big"

	"ammPool/internal/model"
)

// Accumulator holds the running totals of one pool window.
type Accumulator struct {
	Pool          string
	PoolMeta      model.PoolMeta
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	VolumeX       *big.Int
	VolumeY       *big.Int
	FeeX          *big.Int
	FeeY          *big.Int
	ReserveX      *big.Int
	ReserveY      *big.Int
	FirstSequence uint64
	LastSequence  uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		Pool:          record.Pool,
		PoolMeta:      record.PoolMeta,
		WindowStart:   windowStart,
		WindowEnd:     windowEnd,
		VolumeX:       big.NewInt(0),
		VolumeY:       big.NewInt(0),
		FeeX:          big.NewInt(0),
		FeeY:          big.NewInt(0),
		FirstSequence: record.Sequence,
		LastSequence:  record.Sequence,
	}
}

// AddEvent folds one decoded event into the window. A failed event leaves
// the sequence range untouched.
func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if err := a.apply(record); err != nil {
		return err
	}
	if record.Sequence > a.LastSequence {
		a.LastSequence = record.Sequence
	}
	if a.FirstSequence == 0 || record.Sequence < a.FirstSequence {
		a.FirstSequence = record.Sequence
	}
	if a.PoolMeta == (model.PoolMeta{}) {
		a.PoolMeta = record.PoolMeta
	}
	return nil
}

func (a *Accumulator) apply(record model.TypedEventRecord) error {
	switch record.EventName {
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		if err := a.applySwap(swap); err != nil {
			return err
		}
		return a.setReserves(swap.ReserveX, swap.ReserveY)
	case model.EventDeposit:
		var dep model.DepositEventData
		if err := json.Unmarshal(record.Decoded, &dep); err != nil {
			return fmt.Errorf("decode deposit: %w", err)
		}
		a.DepositCount++
		return a.setReserves(dep.ReserveX, dep.ReserveY)
	case model.EventWithdraw:
		var wd model.WithdrawEventData
		if err := json.Unmarshal(record.Decoded, &wd); err != nil {
			return fmt.Errorf("decode withdraw: %w", err)
		}
		a.WithdrawCount++
		return a.setReserves(wd.ReserveX, wd.ReserveY)
	default:
		return nil
	}
}

// applySwap adds the amounts moved on each side and charges the fee, the
// part of the input that did not price the trade, to the input side.
func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	in, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	net, err := parseBigInt(swap.AmountInNet)
	if err != nil {
		return err
	}
	out, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}
	if net.Cmp(in) > 0 {
		return fmt.Errorf("net input %s exceeds input %s", net, in)
	}
	fee := new(big.Int).Sub(in, net)

	if swap.XToY {
		a.VolumeX.Add(a.VolumeX, in)
		a.VolumeY.Add(a.VolumeY, out)
		a.FeeX.Add(a.FeeX, fee)
	} else {
		a.VolumeY.Add(a.VolumeY, in)
		a.VolumeX.Add(a.VolumeX, out)
		a.FeeY.Add(a.FeeY, fee)
	}
	a.SwapCount++
	return nil
}

func (a *Accumulator) setReserves(x, y string) error {
	rx, err := parseBigInt(x)
	if err != nil {
		return err
	}
	ry, err := parseBigInt(y)
	if err != nil {
		return err
	}
	a.ReserveX, a.ReserveY = rx, ry
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}

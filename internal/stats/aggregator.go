// Package stats folds decoded journal events into per pool, per window
// activity: swap, deposit and withdraw counts, volumes, fees and the fee
// yield against the reserves at the end of the window.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"ammPool/internal/journal"
	"ammPool/internal/model"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// RecomputeFrom restarts aggregation at this journal sequence instead of
	// the saved progress.
	RecomputeFrom uint64
	// Since drops events stamped before this unix time.
	Since    uint64
	Progress ProgressStore
}

// Aggregator buckets typed events into windows aligned to WindowSeconds.
// Input must be in journal order. All pools share the current window; when
// an event opens a later window, every open accumulator is flushed.
type Aggregator struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	current      uint64
	lastSeq      uint64
	pending      []model.PoolWindowStats
	closedSeq    uint64
}

func NewAggregator(cfg Config, sink Sink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run aggregates a typed events JSONL stream.
func (a *Aggregator) Run(ctx context.Context, r io.Reader) error {
	if a.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	start, err := a.loadStart(ctx)
	if err != nil {
		return err
	}
	a.lastSeq = start
	a.closedSeq = start

	var total, aggregated, skipped, failed int
	err = journal.ScanLines(ctx, r, func(line []byte) error {
		total++
		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			return nil
		}
		if record.Sequence <= start || record.Timestamp < a.cfg.Since {
			skipped++
			return nil
		}

		ws := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		if len(a.accumulators) > 0 && ws < a.current {
			skipped++
			a.logger.Warn("late event", zap.Uint64("sequence", record.Sequence), zap.String("pool", record.Pool))
			return nil
		}
		if len(a.accumulators) > 0 && ws > a.current {
			a.closeWindow()
			a.closedSeq = a.lastSeq
			if len(a.pending) >= a.cfg.BatchSize {
				if err := a.flush(ctx); err != nil {
					return err
				}
			}
		}
		a.current = ws

		acc := a.accumulators[record.Pool]
		if acc == nil {
			acc = NewAccumulator(record, ws, ws+a.cfg.WindowSeconds)
			a.accumulators[record.Pool] = acc
		}
		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Pool), zap.String("event", record.EventName))
			return nil
		}
		if record.Sequence > a.lastSeq {
			a.lastSeq = record.Sequence
		}
		aggregated++
		return nil
	})
	if err != nil {
		return err
	}

	// The last window may still receive events, so its stats are written
	// but progress stops before it and the next run recomputes it.
	a.closeWindow()
	if err := a.flush(ctx); err != nil {
		return err
	}

	a.logger.Info("stats complete",
		zap.Int("total", total),
		zap.Int("aggregated", aggregated),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("progress", a.closedSeq),
	)
	return nil
}

func (a *Aggregator) loadStart(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.Progress == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.Progress.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// closeWindow moves every open accumulator into the pending batch.
func (a *Aggregator) closeWindow() {
	pools := make([]string, 0, len(a.accumulators))
	for pool := range a.accumulators {
		pools = append(pools, pool)
	}
	sort.Strings(pools)
	for _, pool := range pools {
		a.pending = append(a.pending, a.build(a.accumulators[pool]))
	}
	a.accumulators = make(map[string]*Accumulator)
}

// flush writes pending stats and records progress up to the last event of
// the last closed window.
func (a *Aggregator) flush(ctx context.Context) error {
	if len(a.pending) > 0 {
		if err := a.sink.WriteStats(ctx, a.pending); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
		a.pending = a.pending[:0]
	}
	if a.cfg.Progress == nil {
		return nil
	}
	if err := a.cfg.Progress.Save(ctx, a.closedSeq); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (a *Aggregator) build(acc *Accumulator) model.PoolWindowStats {
	feeRateX, feeRateY := computeFeeRates(acc.FeeX, acc.FeeY, acc.ReserveX, acc.ReserveY)
	return model.PoolWindowStats{
		Pool:           acc.Pool,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		VolumeX:        bigString(acc.VolumeX),
		VolumeY:        bigString(acc.VolumeY),
		FeeX:           bigString(acc.FeeX),
		FeeY:           bigString(acc.FeeY),
		ReserveX:       optionalBigString(acc.ReserveX),
		ReserveY:       optionalBigString(acc.ReserveY),
		FeeRateX:       feeRateX,
		FeeRateY:       feeRateY,
		APR:            computeAPR(feeRateX, feeRateY, a.cfg.WindowSeconds),
		LastSequence:   acc.LastSequence,
	}
}

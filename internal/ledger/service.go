// Package ledger runs pool operations against persistent storage. Each
// operation loads the pool, applies the accounting engine to it, moves
// funds through a Custodian and commits the new record with its share
// balances. Committed operations are written to the journal.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/journal"
	"ammPool/internal/metrics"
	"ammPool/internal/model"
	"ammPool/internal/storage"
)

// Config holds runtime settings for the Service.
type Config struct {
	ProgramID    solana.PublicKey
	MaxRetries   int
	RetryBackoff time.Duration
}

// Service serializes operations per pool and keeps storage, custody and
// the journal in step.
type Service struct {
	cfg       Config
	store     storage.Store
	custodian Custodian
	sink      journal.Sink
	encoder   *journal.Encoder
	metrics   *metrics.Recorder
	logger    *zap.Logger
	locks     *keyedMutex
	now       func() time.Time
}

// NewService builds a Service. A nil custodian records balances only and
// leaves settlement of the underlying assets to the caller. A nil sink
// disables the journal and a nil recorder disables metrics.
func NewService(cfg Config, store storage.Store, custodian Custodian, sink journal.Sink, recorder *metrics.Recorder, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	encoder, err := journal.NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		custodian: custodian,
		sink:      sink,
		encoder:   encoder,
		metrics:   recorder,
		logger:    logger,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}, nil
}

// InitRequest describes a new pool.
type InitRequest struct {
	Seed      uint64
	MintX     solana.PublicKey
	MintY     solana.PublicKey
	FeeBps    uint16
	Authority *solana.PublicKey
}

// DepositResult is the outcome of a committed deposit.
type DepositResult struct {
	Quote  amm.DepositQuote `json:"quote"`
	Pool   model.PoolRecord `json:"pool"`
	Shares uint64           `json:"owner_shares"`
}

// SwapResult is the outcome of a committed swap.
type SwapResult struct {
	Quote amm.SwapQuote    `json:"quote"`
	Pool  model.PoolRecord `json:"pool"`
}

// WithdrawResult is the outcome of a committed withdrawal.
type WithdrawResult struct {
	Quote  amm.WithdrawQuote `json:"quote"`
	Pool   model.PoolRecord  `json:"pool"`
	Shares uint64            `json:"owner_shares"`
}

// Initialize creates a pool. A second pool for the same seed and asset pair
// fails with amm.ErrAlreadyInitialized.
func (s *Service) Initialize(ctx context.Context, req InitRequest) (rec model.PoolRecord, err error) {
	start := time.Now()
	defer func() { s.finish("initialize", rec.Address, start, err) }()

	pool, err := amm.Initialize(amm.InitParams{
		ProgramID: s.cfg.ProgramID,
		Seed:      req.Seed,
		MintX:     req.MintX,
		MintY:     req.MintY,
		FeeBps:    req.FeeBps,
		Authority: req.Authority,
	})
	if err != nil {
		return model.PoolRecord{}, err
	}

	address := pool.Config.Addresses.Config.String()
	unlock := s.locks.Lock(address)
	defer unlock()

	now := s.now().UTC()
	rec = recordFromPool(pool, 1, now, now)
	if err := s.store.CreatePool(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrPoolExists) {
			return model.PoolRecord{Address: address}, amm.ErrAlreadyInitialized.Wrapf("pool %s", address)
		}
		return model.PoolRecord{Address: address}, fmt.Errorf("create pool %s: %w", address, err)
	}

	s.emit(address, func() (model.LogRecord, error) { return s.encoder.Initialize(pool.Config) })
	s.metrics.PoolCreated()
	s.metrics.SetPoolState(address, 0, 0, 0)
	return rec, nil
}

// Deposit mints lp shares to owner against a contribution bounded by maxX
// and maxY.
func (s *Service) Deposit(ctx context.Context, address, owner solana.PublicKey, lp, maxX, maxY uint64) (DepositResult, error) {
	var res DepositResult
	rec, err := s.mutate(ctx, "deposit", address, func(ctx context.Context, pool *amm.Pool) (change, error) {
		held, err := s.store.GetShares(ctx, address.String(), owner.String())
		if err != nil {
			return change{}, fmt.Errorf("load shares: %w", err)
		}
		quote, err := pool.Deposit(lp, maxX, maxY)
		if err != nil {
			return change{}, err
		}
		if held+quote.Shares < held {
			return change{}, amm.ErrArithmeticOverflow.Wrapf("share balance %d + %d", held, quote.Shares)
		}
		res.Quote = quote
		res.Shares = held + quote.Shares

		addrs := pool.Config.Addresses
		var steps []transfer
		if s.custodian != nil {
			steps = []transfer{
				depositStep(s.custodian, owner, addrs.VaultX, pool.Config.MintX, quote.AmountX),
				depositStep(s.custodian, owner, addrs.VaultY, pool.Config.MintY, quote.AmountY),
				mintStep(s.custodian, addrs.LPMint, owner, quote.Shares),
			}
		}
		after := pool.State
		return change{
			transfers: steps,
			balances:  []model.ShareBalance{{Pool: address.String(), Owner: owner.String(), Shares: res.Shares}},
			event:     func() (model.LogRecord, error) { return s.encoder.Deposit(address, owner, quote, after) },
		}, nil
	})
	res.Pool = rec
	return res, err
}

// Swap exchanges amountIn of one asset for at least minOut of the other.
func (s *Service) Swap(ctx context.Context, address, owner solana.PublicKey, xToY bool, amountIn, minOut uint64) (SwapResult, error) {
	var res SwapResult
	rec, err := s.mutate(ctx, "swap", address, func(ctx context.Context, pool *amm.Pool) (change, error) {
		quote, err := pool.Swap(xToY, amountIn, minOut)
		if err != nil {
			return change{}, err
		}
		res.Quote = quote

		addrs := pool.Config.Addresses
		mintIn, vaultIn, mintOut, vaultOut := pool.Config.MintX, addrs.VaultX, pool.Config.MintY, addrs.VaultY
		if !xToY {
			mintIn, vaultIn, mintOut, vaultOut = mintOut, vaultOut, mintIn, vaultIn
		}
		var steps []transfer
		if s.custodian != nil {
			steps = []transfer{
				depositStep(s.custodian, owner, vaultIn, mintIn, quote.AmountIn),
				withdrawStep(s.custodian, vaultOut, owner, mintOut, quote.AmountOut),
			}
		}
		after := pool.State
		return change{
			transfers: steps,
			event:     func() (model.LogRecord, error) { return s.encoder.Swap(address, owner, quote, after) },
			swap:      &quote,
		}, nil
	})
	res.Pool = rec
	return res, err
}

// Withdraw burns lp of owner's shares and pays out at least (minX, minY).
func (s *Service) Withdraw(ctx context.Context, address, owner solana.PublicKey, lp, minX, minY uint64) (WithdrawResult, error) {
	var res WithdrawResult
	rec, err := s.mutate(ctx, "withdraw", address, func(ctx context.Context, pool *amm.Pool) (change, error) {
		held, err := s.store.GetShares(ctx, address.String(), owner.String())
		if err != nil {
			return change{}, fmt.Errorf("load shares: %w", err)
		}
		quote, err := pool.Withdraw(lp, minX, minY, held)
		if err != nil {
			return change{}, err
		}
		res.Quote = quote
		res.Shares = held - quote.Shares

		addrs := pool.Config.Addresses
		var steps []transfer
		if s.custodian != nil {
			steps = []transfer{
				burnStep(s.custodian, addrs.LPMint, owner, quote.Shares),
				withdrawStep(s.custodian, addrs.VaultX, owner, pool.Config.MintX, quote.AmountX),
				withdrawStep(s.custodian, addrs.VaultY, owner, pool.Config.MintY, quote.AmountY),
			}
		}
		after := pool.State
		return change{
			transfers: steps,
			balances:  []model.ShareBalance{{Pool: address.String(), Owner: owner.String(), Shares: res.Shares}},
			event:     func() (model.LogRecord, error) { return s.encoder.Withdraw(address, owner, quote, after) },
		}, nil
	})
	res.Pool = rec
	return res, err
}

// SetLocked pauses or resumes a pool on behalf of caller.
func (s *Service) SetLocked(ctx context.Context, address, caller solana.PublicKey, locked bool) (model.PoolRecord, error) {
	op := "unlock"
	if locked {
		op = "lock"
	}
	return s.mutate(ctx, op, address, func(_ context.Context, pool *amm.Pool) (change, error) {
		if err := pool.SetLocked(caller, locked); err != nil {
			return change{}, err
		}
		return change{
			event: func() (model.LogRecord, error) { return s.encoder.Lock(address, caller, locked) },
		}, nil
	})
}

// Pool returns the stored record of a pool.
func (s *Service) Pool(ctx context.Context, address solana.PublicKey) (model.PoolRecord, error) {
	rec, err := s.store.GetPool(ctx, address.String())
	if err != nil {
		return model.PoolRecord{}, fmt.Errorf("load pool %s: %w", address, err)
	}
	return rec, nil
}

// Pools lists every stored pool.
func (s *Service) Pools(ctx context.Context) ([]model.PoolRecord, error) {
	return s.store.ListPools(ctx)
}

// Shares returns the share balance of owner in a pool.
func (s *Service) Shares(ctx context.Context, address, owner solana.PublicKey) (uint64, error) {
	return s.store.GetShares(ctx, address.String(), owner.String())
}

// PoolMeta resolves the static metadata of a pool. It satisfies
// journal.MetaLookup.
func (s *Service) PoolMeta(ctx context.Context, address string) (model.PoolMeta, error) {
	rec, err := s.store.GetPool(ctx, address)
	if err != nil {
		return model.PoolMeta{}, err
	}
	return metaFromRecord(rec), nil
}

// QuoteDeposit prices a deposit against the stored pool without changing it.
func (s *Service) QuoteDeposit(ctx context.Context, address solana.PublicKey, lp, maxX, maxY uint64) (amm.DepositQuote, error) {
	pool, err := s.load(ctx, address)
	if err != nil {
		return amm.DepositQuote{}, err
	}
	return pool.Deposit(lp, maxX, maxY)
}

// QuoteSwap prices a swap against the stored pool without changing it.
func (s *Service) QuoteSwap(ctx context.Context, address solana.PublicKey, xToY bool, amountIn uint64) (amm.SwapQuote, error) {
	pool, err := s.load(ctx, address)
	if err != nil {
		return amm.SwapQuote{}, err
	}
	return pool.Swap(xToY, amountIn, 0)
}

// QuoteWithdraw prices a withdrawal of owner's shares without changing the
// pool.
func (s *Service) QuoteWithdraw(ctx context.Context, address, owner solana.PublicKey, lp uint64) (amm.WithdrawQuote, error) {
	pool, err := s.load(ctx, address)
	if err != nil {
		return amm.WithdrawQuote{}, err
	}
	held, err := s.store.GetShares(ctx, address.String(), owner.String())
	if err != nil {
		return amm.WithdrawQuote{}, fmt.Errorf("load shares: %w", err)
	}
	return pool.Withdraw(lp, 0, 0, held)
}

func (s *Service) load(ctx context.Context, address solana.PublicKey) (*amm.Pool, error) {
	rec, err := s.Pool(ctx, address)
	if err != nil {
		return nil, err
	}
	return poolFromRecord(rec)
}

// change is what an applied operation asks the ledger to persist.
type change struct {
	transfers []transfer
	balances  []model.ShareBalance
	event     func() (model.LogRecord, error)
	swap      *amm.SwapQuote
}

func (s *Service) mutate(ctx context.Context, op string, address solana.PublicKey, apply func(context.Context, *amm.Pool) (change, error)) (committed model.PoolRecord, err error) {
	start := time.Now()
	key := address.String()
	defer func() { s.finish(op, key, start, err) }()

	unlock := s.locks.Lock(key)
	defer unlock()

	var applied change
	err = withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, isVersionConflict, func(ctx context.Context) error {
		rec, err := s.store.GetPool(ctx, key)
		if err != nil {
			return fmt.Errorf("load pool %s: %w", key, err)
		}
		pool, err := poolFromRecord(rec)
		if err != nil {
			return err
		}
		applied, err = apply(ctx, pool)
		if err != nil {
			return err
		}

		next := recordFromPool(pool, rec.Version+1, rec.CreatedAt, s.now().UTC())
		done, err := s.settle(ctx, applied.transfers)
		if err != nil {
			return err
		}
		if err := s.store.Commit(ctx, next, applied.balances); err != nil {
			s.rollback(ctx, done)
			if errors.Is(err, storage.ErrVersionConflict) {
				s.metrics.CommitConflict()
				s.logger.Warn("commit conflict, retrying", zap.String("op", op), zap.String("pool", key), zap.Uint64("version", next.Version))
			}
			return fmt.Errorf("commit pool %s: %w", key, err)
		}
		committed = next
		return nil
	})
	if err != nil {
		return model.PoolRecord{}, err
	}

	if applied.event != nil {
		s.emit(key, applied.event)
	}
	if q := applied.swap; q != nil {
		side := "x"
		if !q.XToY {
			side = "y"
		}
		s.metrics.ObserveSwap(key, side, q.AmountIn, q.Fee)
	}
	s.metrics.SetPoolState(key, committed.ReserveX, committed.ReserveY, committed.TotalShares)
	return committed, nil
}

// settle runs transfers in order. On failure the completed ones are undone
// and the error of the failed step is returned.
func (s *Service) settle(ctx context.Context, steps []transfer) ([]transfer, error) {
	for i, step := range steps {
		if err := step.do(ctx); err != nil {
			s.rollback(ctx, steps[:i])
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return steps, nil
}

func (s *Service) rollback(ctx context.Context, done []transfer) {
	for i := len(done) - 1; i >= 0; i-- {
		if err := done[i].undo(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("undo transfer failed", zap.String("step", done[i].name), zap.Error(err))
		}
	}
}

// emit appends a journal record. The operation is already committed, so a
// journal failure is logged and not returned.
func (s *Service) emit(pool string, build func() (model.LogRecord, error)) {
	if s.sink == nil {
		return
	}
	record, err := build()
	if err == nil {
		err = s.sink.Append(record)
	}
	if err != nil {
		s.logger.Error("journal append failed", zap.String("pool", pool), zap.Error(err))
	}
}

func (s *Service) finish(op, pool string, start time.Time, err error) {
	elapsed := time.Since(start)
	result := resultLabel(err)
	s.metrics.ObserveOperation(op, result, elapsed)

	fields := []zap.Field{zap.String("op", op), zap.String("pool", pool), zap.Duration("elapsed", elapsed)}
	switch {
	case err == nil:
		s.logger.Info("operation committed", fields...)
	case amm.IsUserError(err) || errors.Is(err, storage.ErrPoolNotFound) || errors.Is(err, ErrInsufficientFunds):
		s.logger.Debug("operation rejected", append(fields, zap.String("reason", result), zap.Error(err))...)
	default:
		s.logger.Error("operation failed", append(fields, zap.String("reason", result), zap.Error(err))...)
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, storage.ErrPoolNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return amm.Kind(err)
	}
}

func isVersionConflict(err error) bool {
	return errors.Is(err, storage.ErrVersionConflict)
}

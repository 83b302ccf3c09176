package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammPool/internal/model"
	"ammPool/internal/storage"
)

// Store provides Postgres persistence for pools, shares and window stats.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

const poolColumns = `
	address, program_id, seed::text, mint_x, mint_y, fee_bps, COALESCE(authority, ''),
	config_bump, lp_mint, lp_mint_bump, vault_x, vault_y,
	reserve_x::text, reserve_y::text, total_shares::text, locked, version, created_at, updated_at`

// CreatePool inserts a new pool record.
func (s *Store) CreatePool(ctx context.Context, rec model.PoolRecord) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO amm_pools (
			address, program_id, seed, mint_x, mint_y, fee_bps, authority,
			config_bump, lp_mint, lp_mint_bump, vault_x, vault_y,
			reserve_x, reserve_y, total_shares, locked, version, created_at, updated_at
		) VALUES ($1,$2,$3::numeric,$4,$5,$6,NULLIF($7, ''),$8,$9,$10,$11,$12,$13::numeric,$14::numeric,$15::numeric,$16,$17,$18,$19)
		ON CONFLICT DO NOTHING
	`,
		rec.Address,
		rec.ProgramID,
		u64(rec.Seed),
		rec.MintX,
		rec.MintY,
		int32(rec.FeeBps),
		rec.Authority,
		int16(rec.ConfigBump),
		rec.LPMint,
		int16(rec.LPMintBump),
		rec.VaultX,
		rec.VaultY,
		u64(rec.ReserveX),
		u64(rec.ReserveY),
		u64(rec.TotalShares),
		rec.Locked,
		int64(rec.Version),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrPoolExists, rec.Address)
	}
	return nil
}

// GetPool loads one pool record by address.
func (s *Store) GetPool(ctx context.Context, address string) (model.PoolRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM amm_pools WHERE address=$1`, address)
	rec, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolRecord{}, fmt.Errorf("%w: %s", storage.ErrPoolNotFound, address)
		}
		return model.PoolRecord{}, err
	}
	return rec, nil
}

// ListPools returns every pool ordered by address.
func (s *Store) ListPools(ctx context.Context) ([]model.PoolRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+poolColumns+` FROM amm_pools ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	var out []model.PoolRecord
	for rows.Next() {
		rec, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetShares returns the share balance of owner in pool, zero when absent.
func (s *Store) GetShares(ctx context.Context, pool, owner string) (uint64, error) {
	var text string
	row := s.pool.QueryRow(ctx, `SELECT shares::text FROM amm_shares WHERE pool=$1 AND owner=$2`, pool, owner)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return parseU64(text)
}

// Commit replaces the pool record and share balances in one transaction.
func (s *Store) Commit(ctx context.Context, rec model.PoolRecord, balances []model.ShareBalance) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE amm_pools SET
				reserve_x = $2::numeric,
				reserve_y = $3::numeric,
				total_shares = $4::numeric,
				locked = $5,
				version = $6,
				updated_at = $7
			WHERE address = $1 AND version = $6 - 1
		`,
			rec.Address,
			u64(rec.ReserveX),
			u64(rec.ReserveY),
			u64(rec.TotalShares),
			rec.Locked,
			int64(rec.Version),
			rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update pool: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var version int64
			err := tx.QueryRow(ctx, `SELECT version FROM amm_pools WHERE address=$1`, rec.Address).Scan(&version)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", storage.ErrPoolNotFound, rec.Address)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: %s at version %d, commit carries %d", storage.ErrVersionConflict, rec.Address, version, rec.Version)
		}

		if len(balances) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, b := range balances {
			if b.Shares == 0 {
				batch.Queue(`DELETE FROM amm_shares WHERE pool=$1 AND owner=$2`, b.Pool, b.Owner)
				continue
			}
			batch.Queue(`
				INSERT INTO amm_shares (pool, owner, shares, updated_at)
				VALUES ($1, $2, $3::numeric, now())
				ON CONFLICT (pool, owner)
				DO UPDATE SET shares = EXCLUDED.shares, updated_at = now()
			`, b.Pool, b.Owner, u64(b.Shares))
		}

		br := tx.SendBatch(ctx, batch)
		for range balances {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("write shares: %w", err)
			}
		}
		return br.Close()
	})
}

// UpsertWindowStats inserts or updates window stats.
func (s *Store) UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range stats {
		batch.Queue(`
			INSERT INTO pool_window_stats (
				pool, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count, volume_x, volume_y, fee_x, fee_y,
				reserve_x, reserve_y, fee_rate_x, fee_rate_y, apr, last_sequence, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now(),now())
			ON CONFLICT (pool, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume_x = EXCLUDED.volume_x,
				volume_y = EXCLUDED.volume_y,
				fee_x = EXCLUDED.fee_x,
				fee_y = EXCLUDED.fee_y,
				reserve_x = EXCLUDED.reserve_x,
				reserve_y = EXCLUDED.reserve_y,
				fee_rate_x = EXCLUDED.fee_rate_x,
				fee_rate_y = EXCLUDED.fee_rate_y,
				apr = EXCLUDED.apr,
				last_sequence = EXCLUDED.last_sequence,
				updated_at = now()
		`,
			m.Pool,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.VolumeX,
			m.VolumeY,
			m.FeeX,
			m.FeeY,
			m.ReserveX,
			m.ReserveY,
			m.FeeRateX,
			m.FeeRateY,
			m.APR,
			int64(m.LastSequence),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadProgress returns last_sequence for a name.
func (s *Store) LoadProgress(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("progress name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_sequence FROM stats_progress WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveProgress upserts last_sequence for a name.
func (s *Store) SaveProgress(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("progress name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stats_progress (name, last_sequence, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_sequence = EXCLUDED.last_sequence, updated_at = now()
	`, name, int64(seq))
	return err
}

func scanPool(row pgx.Row) (model.PoolRecord, error) {
	var (
		rec                model.PoolRecord
		seed, rx, ry, ts   string
		feeBps             int32
		configBump, lpBump int16
		version            int64
	)
	if err := row.Scan(
		&rec.Address, &rec.ProgramID, &seed, &rec.MintX, &rec.MintY, &feeBps, &rec.Authority,
		&configBump, &rec.LPMint, &lpBump, &rec.VaultX, &rec.VaultY,
		&rx, &ry, &ts, &rec.Locked, &version, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return model.PoolRecord{}, err
	}

	var err error
	if rec.Seed, err = parseU64(seed); err != nil {
		return model.PoolRecord{}, err
	}
	if rec.ReserveX, err = parseU64(rx); err != nil {
		return model.PoolRecord{}, err
	}
	if rec.ReserveY, err = parseU64(ry); err != nil {
		return model.PoolRecord{}, err
	}
	if rec.TotalShares, err = parseU64(ts); err != nil {
		return model.PoolRecord{}, err
	}
	rec.FeeBps = uint16(feeBps)
	rec.ConfigBump = uint8(configBump)
	rec.LPMintBump = uint8(lpBump)
	rec.Version = uint64(version)
	return rec, nil
}

// uint64 values exceed BIGINT, so they travel as NUMERIC text.
func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseU64(text string) (uint64, error) {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", text, err)
	}
	return v, nil
}

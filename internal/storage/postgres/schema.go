package postgres

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS amm_pools (
	address       TEXT PRIMARY KEY,
	program_id    TEXT NOT NULL,
	seed          NUMERIC(20,0) NOT NULL,
	mint_x        TEXT NOT NULL,
	mint_y        TEXT NOT NULL,
	fee_bps       INTEGER NOT NULL,
	authority     TEXT,
	config_bump   SMALLINT NOT NULL,
	lp_mint       TEXT NOT NULL,
	lp_mint_bump  SMALLINT NOT NULL,
	vault_x       TEXT NOT NULL,
	vault_y       TEXT NOT NULL,
	reserve_x     NUMERIC(20,0) NOT NULL,
	reserve_y     NUMERIC(20,0) NOT NULL,
	total_shares  NUMERIC(20,0) NOT NULL,
	locked        BOOLEAN NOT NULL,
	version       BIGINT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS amm_pools_seed_pair_idx
	ON amm_pools (program_id, seed, LEAST(mint_x, mint_y), GREATEST(mint_x, mint_y));

CREATE TABLE IF NOT EXISTS amm_shares (
	pool        TEXT NOT NULL REFERENCES amm_pools (address),
	owner       TEXT NOT NULL,
	shares      NUMERIC(20,0) NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool, owner)
);

CREATE TABLE IF NOT EXISTS pool_window_stats (
	pool                 TEXT NOT NULL,
	window_size_seconds  BIGINT NOT NULL,
	window_start_ts      TIMESTAMPTZ NOT NULL,
	window_end_ts        TIMESTAMPTZ NOT NULL,
	swap_count           BIGINT NOT NULL,
	deposit_count        BIGINT NOT NULL,
	withdraw_count       BIGINT NOT NULL,
	volume_x             NUMERIC NOT NULL,
	volume_y             NUMERIC NOT NULL,
	fee_x                NUMERIC NOT NULL,
	fee_y                NUMERIC NOT NULL,
	reserve_x            NUMERIC,
	reserve_y            NUMERIC,
	fee_rate_x           NUMERIC,
	fee_rate_y           NUMERIC,
	apr                  NUMERIC,
	last_sequence        BIGINT NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool, window_size_seconds, window_start_ts)
);

CREATE TABLE IF NOT EXISTS stats_progress (
	name           TEXT PRIMARY KEY,
	last_sequence  BIGINT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables the store uses when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

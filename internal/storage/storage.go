// Package storage persists pool records and share balances.
package storage

import (
	"context"
	"errors"

	"ammPool/internal/model"
)

var (
	// ErrPoolNotFound is returned when no record exists for an address.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrPoolExists is returned by CreatePool for an address already stored.
	ErrPoolExists = errors.New("pool already exists")
	// ErrVersionConflict is returned by Commit when the stored record changed
	// since it was loaded.
	ErrVersionConflict = errors.New("pool version conflict")
)

// Store is the authoritative home of pool records.
//
// Commit replaces a pool record and the given share balances together. The
// record's Version must be exactly one more than the stored version; any
// other value fails with ErrVersionConflict and writes nothing.
type Store interface {
	CreatePool(ctx context.Context, rec model.PoolRecord) error
	GetPool(ctx context.Context, address string) (model.PoolRecord, error)
	ListPools(ctx context.Context) ([]model.PoolRecord, error)
	GetShares(ctx context.Context, pool, owner string) (uint64, error)
	Commit(ctx context.Context, rec model.PoolRecord, balances []model.ShareBalance) error
	Close() error
}

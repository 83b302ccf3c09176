package storage

import (
	"context"
	"fmt"
	"sync"

	"ammPool/internal/model"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	pools  map[string]model.PoolRecord
	shares map[shareKey]uint64
}

type shareKey struct {
	pool  string
	owner string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools:  make(map[string]model.PoolRecord),
		shares: make(map[shareKey]uint64),
	}
}

func (s *MemoryStore) CreatePool(_ context.Context, rec model.PoolRecord) error {
	if rec.Address == "" {
		return fmt.Errorf("pool address required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[rec.Address]; ok {
		return fmt.Errorf("%w: %s", ErrPoolExists, rec.Address)
	}
	s.pools[rec.Address] = rec
	return nil
}

func (s *MemoryStore) GetPool(_ context.Context, address string) (model.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.pools[address]
	if !ok {
		return model.PoolRecord{}, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}
	return rec, nil
}

func (s *MemoryStore) ListPools(_ context.Context) ([]model.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedPools(s.pools), nil
}

func (s *MemoryStore) GetShares(_ context.Context, pool, owner string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shares[shareKey{pool: pool, owner: owner}], nil
}

func (s *MemoryStore) Commit(_ context.Context, rec model.PoolRecord, balances []model.ShareBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkVersion(s.pools, rec); err != nil {
		return err
	}
	s.pools[rec.Address] = rec
	for _, b := range balances {
		setShares(s.shares, b)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func checkVersion(pools map[string]model.PoolRecord, rec model.PoolRecord) error {
	stored, ok := pools[rec.Address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPoolNotFound, rec.Address)
	}
	if rec.Version != stored.Version+1 {
		return fmt.Errorf("%w: %s at version %d, commit carries %d", ErrVersionConflict, rec.Address, stored.Version, rec.Version)
	}
	return nil
}

func setShares(shares map[shareKey]uint64, b model.ShareBalance) {
	key := shareKey{pool: b.Pool, owner: b.Owner}
	if b.Shares == 0 {
		delete(shares, key)
		return
	}
	shares[key] = b.Shares
}

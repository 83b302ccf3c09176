package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"ammPool/internal/model"
)

// FileStore keeps every record in one JSON snapshot file. Each write
// replaces the file via tmp + rename, so a crash leaves either the old or the
// new snapshot on disk. Writes hold an exclusive lock on path + ".lock" and
// reload the snapshot before checking versions, so several handles (or
// processes) on one file see each other's commits.
type FileStore struct {
	path string
	lock *flock.Flock

	mu     sync.Mutex
	pools  map[string]model.PoolRecord
	shares map[shareKey]uint64
}

type snapshot struct {
	Pools     []model.PoolRecord   `json:"pools"`
	Shares    []model.ShareBalance `json:"shares"`
	UpdatedAt string               `json:"updated_at"`
}

// OpenFileStore loads the snapshot at path, or starts empty when it does not
// exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	s := &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load replaces the in-memory view with the snapshot on disk.
func (s *FileStore) load() error {
	pools := make(map[string]model.PoolRecord)
	shares := make(map[shareKey]uint64)

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return fmt.Errorf("read state: %w", err)
	default:
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("parse state: %w", err)
		}
		for _, rec := range snap.Pools {
			pools[rec.Address] = rec
		}
		for _, b := range snap.Shares {
			setShares(shares, b)
		}
	}

	s.pools = pools
	s.shares = shares
	return nil
}

// update runs fn against a fresh snapshot while holding the file lock and
// flushes when fn succeeds. A failed flush reloads the previous state.
func (s *FileStore) update(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state: %w", err)
	}
	defer s.lock.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	if err := s.flush(); err != nil {
		if reloadErr := s.load(); reloadErr != nil {
			return fmt.Errorf("%w (reload: %v)", err, reloadErr)
		}
		return err
	}
	return nil
}

// view reloads the snapshot and runs fn under the handle mutex. Snapshots are
// swapped in by rename, so readers never see a partial file.
func (s *FileStore) view(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	fn()
	return nil
}

func (s *FileStore) CreatePool(_ context.Context, rec model.PoolRecord) error {
	if rec.Address == "" {
		return fmt.Errorf("pool address required")
	}
	return s.update(func() error {
		if _, ok := s.pools[rec.Address]; ok {
			return fmt.Errorf("%w: %s", ErrPoolExists, rec.Address)
		}
		s.pools[rec.Address] = rec
		return nil
	})
}

func (s *FileStore) GetPool(_ context.Context, address string) (model.PoolRecord, error) {
	var (
		rec model.PoolRecord
		ok  bool
	)
	if err := s.view(func() { rec, ok = s.pools[address] }); err != nil {
		return model.PoolRecord{}, err
	}
	if !ok {
		return model.PoolRecord{}, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}
	return rec, nil
}

func (s *FileStore) ListPools(_ context.Context) ([]model.PoolRecord, error) {
	var out []model.PoolRecord
	if err := s.view(func() { out = sortedPools(s.pools) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileStore) GetShares(_ context.Context, pool, owner string) (uint64, error) {
	var shares uint64
	if err := s.view(func() { shares = s.shares[shareKey{pool: pool, owner: owner}] }); err != nil {
		return 0, err
	}
	return shares, nil
}

func (s *FileStore) Commit(_ context.Context, rec model.PoolRecord, balances []model.ShareBalance) error {
	return s.update(func() error {
		if err := checkVersion(s.pools, rec); err != nil {
			return err
		}
		s.pools[rec.Address] = rec
		for _, b := range balances {
			setShares(s.shares, b)
		}
		return nil
	})
}

func (s *FileStore) Close() error {
	return s.lock.Close()
}

func (s *FileStore) flush() error {
	snap := snapshot{
		Pools:     sortedPools(s.pools),
		Shares:    make([]model.ShareBalance, 0, len(s.shares)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for key, shares := range s.shares {
		snap.Shares = append(snap.Shares, model.ShareBalance{Pool: key.pool, Owner: key.owner, Shares: shares})
	}
	sort.Slice(snap.Shares, func(i, j int) bool {
		if snap.Shares[i].Pool != snap.Shares[j].Pool {
			return snap.Shares[i].Pool < snap.Shares[j].Pool
		}
		return snap.Shares[i].Owner < snap.Shares[j].Owner
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func sortedPools(pools map[string]model.PoolRecord) []model.PoolRecord {
	out := make([]model.PoolRecord, 0, len(pools))
	for _, rec := range pools {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ammPool/internal/model"
)

func testRecord(address string) model.PoolRecord {
	return model.PoolRecord{
		Address: address,
		MintX:   "mintX",
		MintY:   "mintY",
		FeeBps:  200,
		Seed:    1111,
		Version: 1,
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.GetPool(ctx, "missing")
	require.ErrorIs(t, err, ErrPoolNotFound)

	rec := testRecord("poolA")
	require.NoError(t, s.CreatePool(ctx, rec))
	require.ErrorIs(t, s.CreatePool(ctx, rec), ErrPoolExists)
	require.NoError(t, s.CreatePool(ctx, testRecord("poolB")))

	got, err := s.GetPool(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	shares, err := s.GetShares(ctx, "poolA", "alice")
	require.NoError(t, err)
	require.Zero(t, shares)

	next := rec
	next.Version = 2
	next.ReserveX, next.ReserveY, next.TotalShares = 10000, 50000, 8000
	require.NoError(t, s.Commit(ctx, next, []model.ShareBalance{{Pool: "poolA", Owner: "alice", Shares: 8000}}))

	got, err = s.GetPool(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, next, got)
	shares, err = s.GetShares(ctx, "poolA", "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(8000), shares)

	// replaying the same version is a conflict and writes nothing
	stale := next
	stale.ReserveX = 1
	err = s.Commit(ctx, stale, []model.ShareBalance{{Pool: "poolA", Owner: "alice", Shares: 1}})
	require.True(t, errors.Is(err, ErrVersionConflict), "got %v", err)
	got, err = s.GetPool(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, uint64(10000), got.ReserveX)
	shares, err = s.GetShares(ctx, "poolA", "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(8000), shares)

	missing := testRecord("poolC")
	missing.Version = 2
	require.ErrorIs(t, s.Commit(ctx, missing, nil), ErrPoolNotFound)

	burned := next
	burned.Version = 3
	burned.ReserveX, burned.ReserveY, burned.TotalShares = 0, 0, 0
	require.NoError(t, s.Commit(ctx, burned, []model.ShareBalance{{Pool: "poolA", Owner: "alice", Shares: 0}}))
	shares, err = s.GetShares(ctx, "poolA", "alice")
	require.NoError(t, err)
	require.Zero(t, shares)

	pools, err := s.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	require.Equal(t, "poolA", pools[0].Address)
	require.Equal(t, "poolB", pools[1].Address)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pools.json")
	s, err := OpenFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestFileStoreReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pools.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	rec := testRecord("poolA")
	require.NoError(t, s.CreatePool(ctx, rec))
	rec.Version = 2
	rec.ReserveX, rec.ReserveY, rec.TotalShares = 4, 9, 6
	require.NoError(t, s.Commit(ctx, rec, []model.ShareBalance{{Pool: "poolA", Owner: "bob", Shares: 6}}))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	got, err := reopened.GetPool(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, rec, got)
	shares, err := reopened.GetShares(ctx, "poolA", "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(6), shares)
}

func TestFileStoreSharedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pools.json")

	a, err := OpenFileStore(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenFileStore(path)
	require.NoError(t, err)
	defer b.Close()

	rec := testRecord("poolA")
	require.NoError(t, a.CreatePool(ctx, rec))
	require.ErrorIs(t, b.CreatePool(ctx, rec), ErrPoolExists)

	first := rec
	first.Version = 2
	first.ReserveX = 111
	require.NoError(t, a.Commit(ctx, first, nil))

	second := rec
	second.Version = 2
	second.ReserveX = 222
	require.ErrorIs(t, b.Commit(ctx, second, nil), ErrVersionConflict)

	got, err := b.GetPool(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, first, got)

	// retrying on top of the fresh version succeeds
	second.Version = 3
	require.NoError(t, b.Commit(ctx, second, []model.ShareBalance{{Pool: "poolA", Owner: "bob", Shares: 5}}))
	got, err = a.GetPool(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, uint64(222), got.ReserveX)
	shares, err := a.GetShares(ctx, "poolA", "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(5), shares)
}

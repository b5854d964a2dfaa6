package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
	"github.com/rummage/items/internal/storage/memory"
	"github.com/rummage/items/internal/storage/storagetest"
)

// countingStore records how many lookups reach the wrapped store.
type countingStore struct {
	storage.ItemStore
	findByID int
}

func (s *countingStore) FindByID(ctx context.Context, id string) (*models.Item, error) {
	s.findByID++
	return s.ItemStore.FindByID(ctx, id)
}

func TestCachedStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.ItemStore {
		return storage.NewCachedStore(memory.New(), time.Minute)
	})
}

func TestCachedStore_ServesRepeatLookupsFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{ItemStore: memory.New()}
	require.NoError(t, inner.Insert(ctx, &models.Item{ID: "id-1", Title: "lamp"}))

	cached := storage.NewCachedStore(inner, time.Minute)
	for i := 0; i < 3; i++ {
		item, err := cached.FindByID(ctx, "id-1")
		require.NoError(t, err)
		require.Equal(t, "lamp", item.Title)
	}
	require.Equal(t, 1, inner.findByID)
	require.Equal(t, 1, cached.Len())
}

func TestCachedStore_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{ItemStore: memory.New()}
	cached := storage.NewCachedStore(inner, time.Minute)

	_, err := cached.FindByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = cached.FindByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Equal(t, 2, inner.findByID)
}

func TestCachedStore_ResetFlushes(t *testing.T) {
	ctx := context.Background()
	cached := storage.NewCachedStore(memory.New(), time.Minute)
	require.NoError(t, cached.Insert(ctx, &models.Item{ID: "id-1", Title: "lamp"}))
	require.Equal(t, 1, cached.Len())

	require.NoError(t, cached.Reset(ctx))
	require.Equal(t, 0, cached.Len())

	_, err := cached.FindByID(ctx, "id-1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// resetHookStore runs onReset before delegating, modelling a lookup that
// lands while a reset is in flight.
type resetHookStore struct {
	storage.ItemStore
	onReset func()
}

func (s *resetHookStore) Reset(ctx context.Context) error {
	if s.onReset != nil {
		s.onReset()
	}
	return s.ItemStore.Reset(ctx)
}

func TestCachedStore_ResetDropsLookupsRacingTheReset(t *testing.T) {
	ctx := context.Background()
	inner := &resetHookStore{ItemStore: memory.New()}
	require.NoError(t, inner.Insert(ctx, &models.Item{ID: "id-1", Title: "lamp"}))

	cached := storage.NewCachedStore(inner, time.Minute)
	inner.onReset = func() {
		_, err := cached.FindByID(ctx, "id-1")
		require.NoError(t, err)
	}

	require.NoError(t, cached.Reset(ctx))
	require.Equal(t, 0, cached.Len())

	_, err := cached.FindByID(ctx, "id-1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

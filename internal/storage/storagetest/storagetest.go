// Package storagetest holds the behaviour every storage.ItemStore backend must share.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.ItemStore

func newItem(title string) *models.Item {
	return &models.Item{
		ID:          uuid.New().String(),
		Title:       title,
		URL:         "http://example.com/" + title,
		Description: "description of " + title,
		Amount:      42,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Run exercises the full ItemStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("InsertThenFind", func(t *testing.T) {
		store := newStore(t)
		item := newItem("lamp")
		require.NoError(t, store.Insert(ctx, item))

		byID, err := store.FindByID(ctx, item.ID)
		require.NoError(t, err)
		require.Equal(t, item.ID, byID.ID)
		require.Equal(t, item.Title, byID.Title)
		require.Equal(t, item.URL, byID.URL)
		require.Equal(t, item.Description, byID.Description)
		require.Equal(t, item.Amount, byID.Amount)
		require.True(t, item.CreatedAt.Equal(byID.CreatedAt), "created_at should round-trip")

		byTitle, err := store.FindByTitle(ctx, "lamp")
		require.NoError(t, err)
		require.Equal(t, item.ID, byTitle.ID)
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		store := newStore(t)

		_, err := store.FindByID(ctx, "nonexistent")
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = store.FindByTitle(ctx, "nonexistent")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DuplicateTitleConflicts", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newItem("chair")))

		err := store.Insert(ctx, newItem("chair"))
		require.ErrorIs(t, err, storage.ErrConflict)

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
	})

	t.Run("ListEmptyIsNotNil", func(t *testing.T) {
		store := newStore(t)
		items, err := store.List(ctx)
		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)
	})

	t.Run("ListOrderedByCreation", func(t *testing.T) {
		store := newStore(t)
		base := time.Now().UTC().Truncate(time.Millisecond)
		titles := []string{"first", "second", "third"}
		for i, title := range titles {
			item := newItem(title)
			item.CreatedAt = base.Add(time.Duration(i) * time.Second)
			require.NoError(t, store.Insert(ctx, item))
		}

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, len(titles))
		for i, title := range titles {
			require.Equal(t, title, items[i].Title)
		}
	})

	t.Run("ResetEmptiesStore", func(t *testing.T) {
		store := newStore(t)
		item := newItem("table")
		require.NoError(t, store.Insert(ctx, item))

		require.NoError(t, store.Reset(ctx))

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Empty(t, items)
		_, err = store.FindByID(ctx, item.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)

		// The title is free again after a reset.
		require.NoError(t, store.Insert(ctx, newItem("table")))
	})

	t.Run("ConcurrentDuplicateInsertsOneWins", func(t *testing.T) {
		store := newStore(t)
		const writers = 8

		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.Insert(ctx, newItem("contested"))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, storage.ErrConflict)
		}
		require.Equal(t, 1, wins, "exactly one insert should succeed")

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
	})
}

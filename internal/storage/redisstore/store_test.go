package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
	"github.com/rummage/items/internal/storage/storagetest"
)

// TestStore_Contract runs against a live server when REDIS_ADDR is set.
func TestStore_Contract(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	storagetest.Run(t, func(t *testing.T) storage.ItemStore {
		client := redis.NewClient(&redis.Options{Addr: addr})
		s := NewStore(client, "items-test:"+uuid.New().String()[:8]+":")
		t.Cleanup(func() {
			_ = s.Reset(context.Background())
			_ = s.Close(context.Background())
		})
		return s
	})
}

func newLiveStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s := NewStore(redis.NewClient(&redis.Options{Addr: addr}), "items-test:"+uuid.New().String()[:8]+":")
	t.Cleanup(func() {
		_ = s.Reset(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestStore_ReleaseSurvivesExpiredContext(t *testing.T) {
	s := newLiveStore(t)
	ctx := context.Background()
	require.NoError(t, s.client.Set(ctx, s.titleKey("lamp"), "id-1", 0).Err())

	expired, cancel := context.WithCancel(ctx)
	cancel()
	s.release(expired, s.titleKey("lamp"))

	n, err := s.client.Exists(ctx, s.titleKey("lamp")).Result()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStore_InsertFreesTitleWhenIDTaken(t *testing.T) {
	s := newLiveStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Insert(ctx, &models.Item{ID: "id-1", Title: "lamp", CreatedAt: now}))

	err := s.Insert(ctx, &models.Item{ID: "id-1", Title: "chair", CreatedAt: now})
	require.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.FindByTitle(ctx, "chair")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, s.Insert(ctx, &models.Item{ID: "id-2", Title: "chair", CreatedAt: now}))
}

func TestStore_KeysAreNamespaced(t *testing.T) {
	s := NewStore(nil, "ns:")
	require.Equal(t, "ns:item:abc", s.itemKey("abc"))
	require.Equal(t, "ns:title:lamp", s.titleKey("lamp"))
	require.Equal(t, "ns:items", s.indexKey())
}

func TestDial_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, "127.0.0.1:1", "", 0, "")
	require.Error(t, err)
}

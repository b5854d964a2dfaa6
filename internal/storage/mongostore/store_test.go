package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rummage/items/internal/storage"
	"github.com/rummage/items/internal/storage/storagetest"
)

// TestStore_Contract runs against a live server when MONGO_URI is set.
func TestStore_Contract(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	storagetest.Run(t, func(t *testing.T) storage.ItemStore {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := NewStore(ctx, Options{
			URI:        uri,
			Database:   "items_test",
			Collection: "items_" + uuid.New().String()[:8],
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx := context.Background()
			_ = s.itemsColl.Drop(ctx)
			_ = s.Close(ctx)
		})
		return s
	})
}

func TestNewStore_RequiresURIAndDatabase(t *testing.T) {
	_, err := NewStore(context.Background(), Options{Database: "items"})
	require.ErrorIs(t, err, ErrBadInput)

	_, err = NewStore(context.Background(), Options{URI: "mongodb://localhost:27017"})
	require.ErrorIs(t, err, ErrBadInput)
}

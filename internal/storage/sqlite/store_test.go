package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
	"github.com/rummage/items/internal/storage/storagetest"
)

// setupTestStore creates a new database file and returns its store.
// The database is closed when the test completes.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "items.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.ItemStore {
		return setupTestStore(t)
	})
}

// TestNewStore_CreatesDirectory verifies that NewStore creates the parent directory if missing.
func TestNewStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "items.db")

	s, err := NewStore(dbPath)
	require.NoError(t, err)
	defer s.Close(context.Background())

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

// TestNewStore_RunsMigrations verifies that the items table and its unique index exist.
func TestNewStore_RunsMigrations(t *testing.T) {
	s := setupTestStore(t)

	var tableName string
	err := s.conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='items'",
	).Scan(&tableName)
	require.NoError(t, err, "items table should exist after migrations")
	require.Equal(t, "items", tableName)

	var indexName string
	err = s.conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_items_title'",
	).Scan(&indexName)
	require.NoError(t, err, "title index should exist after migrations")
}

// TestNewStore_ReopenIsIdempotent verifies that migrating an up-to-date database is a no-op
// and keeps existing rows.
func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "items.db")

	first, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Insert(ctx, &models.Item{ID: "id-1", Title: "lamp", CreatedAt: time.Now()}))
	require.NoError(t, first.Close(ctx))

	second, err := NewStore(dbPath)
	require.NoError(t, err)
	defer second.Close(ctx)

	item, err := second.FindByID(ctx, "id-1")
	require.NoError(t, err)
	require.Equal(t, "lamp", item.Title)
}

// TestStore_WALMode verifies that WAL mode is enabled via PRAGMA query.
func TestStore_WALMode(t *testing.T) {
	s := setupTestStore(t)

	var journalMode string
	require.NoError(t, s.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)
}

func TestStore_DuplicateIDConflicts(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	require.NoError(t, s.Insert(ctx, &models.Item{ID: "id-1", Title: "lamp", CreatedAt: time.Now()}))
	err := s.Insert(ctx, &models.Item{ID: "id-1", Title: "chair", CreatedAt: time.Now()})
	require.ErrorIs(t, err, storage.ErrConflict)
}

func TestItemModel_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 30, 0, 123000000, time.UTC)
	item := &models.Item{ID: "id", Title: "t", URL: "u", Description: "d", Amount: -7, CreatedAt: created}

	got := toItemModel(item).toDomain()
	require.Equal(t, item, got)
}

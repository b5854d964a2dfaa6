// Package testutil provides item fixtures and store setup for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage/sqlite"
)

// ItemRequestGen draws well-formed candidate items: a short word title, an
// http(s) url, a sentence of description and an amount in [0, 99999].
func ItemRequestGen() *rapid.Generator[models.CreateItemRequest] {
	return rapid.Custom(func(t *rapid.T) models.CreateItemRequest {
		scheme := rapid.SampledFrom([]string{"http", "https"}).Draw(t, "scheme")
		host := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "host")
		path := rapid.StringMatching(`[a-z0-9]{0,8}`).Draw(t, "path")
		return models.CreateItemRequest{
			Title:       rapid.StringMatching(`[a-z]{2,12}`).Draw(t, "title"),
			URL:         scheme + "://" + host + ".com/" + path,
			Description: rapid.StringMatching(`[A-Z][a-z ]{0,60}\.`).Draw(t, "description"),
			Amount:      rapid.Int64Range(0, 99999).Draw(t, "amount"),
		}
	})
}

// NewItemRequest returns a random candidate whose title is unique per call.
func NewItemRequest() models.CreateItemRequest {
	req := ItemRequestGen().Example()
	req.Title = req.Title + "-" + uuid.New().String()[:8]
	return req
}

// NewSQLiteStore opens a migrated database in t's temp dir and closes it on cleanup.
func NewSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

// Package storage defines the persistence contract consumed by the item registry
// and the helpers shared by its backends.
package storage

import (
	"context"
	"errors"

	"github.com/rummage/items/internal/models"
)

var (
	// ErrNotFound is returned when no live item matches a lookup.
	ErrNotFound = errors.New("item not found")
	// ErrConflict is returned by Insert when the title is already taken.
	// Every backend enforces this itself so concurrent inserts cannot both win.
	ErrConflict = errors.New("item title already exists")
)

// ItemStore is the persistence collaborator of the registry.
type ItemStore interface {
	FindByTitle(ctx context.Context, title string) (*models.Item, error)
	FindByID(ctx context.Context, id string) (*models.Item, error)
	Insert(ctx context.Context, item *models.Item) error
	// List returns all live items ordered by creation time, oldest first.
	List(ctx context.Context) ([]*models.Item, error)
	// Reset removes every item. Test harness and CLI only.
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rummage/items/internal/models"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrDuplicateItem = errors.New("item with this title already registered")
)

// ValidationError reports which fields of a candidate item were rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid item: " + strings.Join(parts, ", ")
}

// ItemService is the item registry contract: titles are unique, ids are
// assigned by the server.
type ItemService interface {
	Create(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error)
	List(ctx context.Context) ([]*models.Item, error)
	GetByID(ctx context.Context, id string) (*models.Item, error)
	Reset(ctx context.Context) error
}

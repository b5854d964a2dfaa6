package sqlite

import (
	"time"

	"github.com/rummage/items/internal/models"
)

// itemModel is the database row for the items table.
// CreatedAt is a Unix timestamp in milliseconds.
type itemModel struct {
	ID          string
	Title       string
	URL         string
	Description string
	Amount      int64
	CreatedAt   int64
}

func toItemModel(item *models.Item) *itemModel {
	return &itemModel{
		ID:          item.ID,
		Title:       item.Title,
		URL:         item.URL,
		Description: item.Description,
		Amount:      item.Amount,
		CreatedAt:   item.CreatedAt.UnixMilli(),
	}
}

func (m *itemModel) toDomain() *models.Item {
	return &models.Item{
		ID:          m.ID,
		Title:       m.Title,
		URL:         m.URL,
		Description: m.Description,
		Amount:      m.Amount,
		CreatedAt:   time.UnixMilli(m.CreatedAt).UTC(),
	}
}

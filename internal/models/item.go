package models

import (
	"strings"
	"time"
)

type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateItemRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

func (r *CreateItemRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Title) == "" {
		errors["title"] = "Title is required"
	}

	return errors
}

// Matches reports whether the caller-supplied fields of item equal the request.
// Server-assigned fields (ID, CreatedAt) are ignored.
func (r *CreateItemRequest) Matches(item *Item) bool {
	if item == nil {
		return false
	}
	return item.Title == r.Title &&
		item.URL == r.URL &&
		item.Description == r.Description &&
		item.Amount == r.Amount
}

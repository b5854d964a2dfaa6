// Package memory is an in-process item store, optionally backed by a JSON snapshot file.
package memory

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	items   map[string]*models.Item // itemID -> item
	byTitle map[string]string       // title -> itemID
	file    *storage.JSONStore      // nil when not persisted
}

var _ storage.ItemStore = (*Store)(nil)

func New() *Store {
	return &Store{
		items:   make(map[string]*models.Item),
		byTitle: make(map[string]string),
	}
}

// NewPersistent loads the snapshot in file and rewrites it after every change.
func NewPersistent(file *storage.JSONStore) (*Store, error) {
	s := New()
	s.file = file

	items, err := file.LoadItems()
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, taken := s.byTitle[item.Title]; taken {
			continue
		}
		s.items[item.ID] = item
		s.byTitle[item.Title] = item.ID
	}
	if file.Exists() {
		log.Printf("JSON store loaded: path=%s items=%d", file.Path(), len(s.items))
	} else {
		log.Printf("JSON store created: path=%s", file.Path())
	}
	return s, nil
}

func (s *Store) FindByTitle(_ context.Context, title string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byTitle[title]
	if !exists {
		return nil, storage.ErrNotFound
	}
	itemCopy := *s.items[id]
	return &itemCopy, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	itemCopy := *item
	return &itemCopy, nil
}

func (s *Store) Insert(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTitle[item.Title]; exists {
		return storage.ErrConflict
	}
	if _, exists := s.items[item.ID]; exists {
		return storage.ErrConflict
	}

	itemCopy := *item
	s.items[item.ID] = &itemCopy
	s.byTitle[item.Title] = item.ID

	if err := s.persistLocked(); err != nil {
		delete(s.items, item.ID)
		delete(s.byTitle, item.Title)
		return err
	}
	return nil
}

func (s *Store) List(_ context.Context) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked(), nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*models.Item)
	s.byTitle = make(map[string]string)
	return s.persistLocked()
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) snapshotLocked() []*models.Item {
	items := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		itemCopy := *item
		items = append(items, &itemCopy)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (s *Store) persistLocked() error {
	if s.file == nil {
		return nil
	}
	return s.file.SaveItems(s.snapshotLocked())
}

package storage

import (
	"context"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rummage/items/internal/models"
)

const DefaultCacheTTL = 10 * time.Minute
const DefaultCacheCleanupInterval = 30 * time.Minute

// CachedStore serves FindByID hits from memory. Items are immutable once
// inserted, so a cached entry can only go stale through Reset, which flushes.
type CachedStore struct {
	ItemStore
	cache *gocache.Cache
}

// NewCachedStore wraps inner with a read-through id cache.
func NewCachedStore(inner ItemStore, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		ItemStore: inner,
		cache:     gocache.New(ttl, DefaultCacheCleanupInterval),
	}
}

func (s *CachedStore) FindByID(ctx context.Context, id string) (*models.Item, error) {
	if value, found := s.cache.Get(id); found {
		if item, ok := value.(models.Item); ok {
			return &item, nil
		}
		log.Printf("[cache] wrong type for key %s", id)
	}

	item, err := s.ItemStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(id, *item)
	return item, nil
}

func (s *CachedStore) Insert(ctx context.Context, item *models.Item) error {
	if err := s.ItemStore.Insert(ctx, item); err != nil {
		return err
	}
	s.cache.SetDefault(item.ID, *item)
	return nil
}

// Reset empties the inner store before flushing, so a lookup racing the
// reset cannot re-cache a deleted item.
func (s *CachedStore) Reset(ctx context.Context) error {
	if err := s.ItemStore.Reset(ctx); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

// Len reports the number of cached entries.
func (s *CachedStore) Len() int {
	return s.cache.ItemCount()
}

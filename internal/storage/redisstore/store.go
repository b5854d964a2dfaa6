// Package redisstore keeps items in Redis. Title uniqueness is claimed with
// SETNX on a per-title key before the item itself is written.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

// Store provides item persistence in Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.ItemStore = (*Store)(nil)

// NewStore creates a Store over client. Every key is namespaced by prefix.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis (%s): %w", addr, err)
	}
	log.Printf("Redis connected: addr=%s db=%d", addr, db)
	return NewStore(client, prefix), nil
}

func (s *Store) itemKey(id string) string { return s.prefix + "item:" + id }
func (s *Store) titleKey(title string) string { return s.prefix + "title:" + title }
func (s *Store) indexKey() string { return s.prefix + "items" }

func (s *Store) FindByTitle(ctx context.Context, title string) (*models.Item, error) {
	id, err := s.client.Get(ctx, s.titleKey(title)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Item, error) {
	data, err := s.client.Get(ctx, s.itemKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var item models.Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Insert claims the title first; losing the SETNX race means another writer owns it.
func (s *Store) Insert(ctx context.Context, item *models.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, s.titleKey(item.Title), item.ID, 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return storage.ErrConflict
	}

	stored, err := s.client.SetNX(ctx, s.itemKey(item.ID), data, 0).Result()
	if err != nil || !stored {
		s.release(ctx, s.titleKey(item.Title))
		if err != nil {
			return err
		}
		return storage.ErrConflict
	}

	score := float64(item.CreatedAt.UnixMilli())
	if err := s.client.ZAdd(ctx, s.indexKey(), &redis.Z{Score: score, Member: item.ID}).Err(); err != nil {
		s.release(ctx, s.itemKey(item.ID), s.titleKey(item.Title))
		return err
	}
	return nil
}

// release undoes a partial insert. It runs detached from ctx's deadline: an
// insert that failed on an expired context must still drop its title claim.
func (s *Store) release(ctx context.Context, keys ...string) {
	if err := s.client.Del(context.WithoutCancel(ctx), keys...).Err(); err != nil {
		log.Printf("[redisstore] failed to release keys %v: %v", keys, err)
	}
}

// List returns items in creation order; ties fall back to id order.
func (s *Store) List(ctx context.Context) ([]*models.Item, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Item{}, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.itemKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	items := make([]*models.Item, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var item models.Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, nil
}

// Reset deletes every key under the store prefix.
func (s *Store) Reset(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

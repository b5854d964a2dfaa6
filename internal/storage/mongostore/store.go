// Package mongostore keeps items in a MongoDB collection.
package mongostore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

var ErrBadInput = errors.New("mongo uri and database name are required")

type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	itemsColl *mongo.Collection
}

var _ storage.ItemStore = (*Store)(nil)

type mongoItemDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	URL         string    `bson:"url"`
	Description string    `bson:"description"`
	Amount      int64     `bson:"amount"`
	CreatedAt   time.Time `bson:"created_at"`
}

// Options configures the connection.
type Options struct {
	URI      string
	Database string
	// Collection defaults to "items".
	Collection string
	// ForceTLS12 pins the TLS version; some Atlas deployments fail negotiation otherwise.
	ForceTLS12 bool
}

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" || opts.Database == "" {
		return nil, ErrBadInput
	}
	if opts.Collection == "" {
		opts.Collection = "items"
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.ForceTLS12 {
		clientOpts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(opts.Database)
	items := db.Collection(opts.Collection)

	// Concurrent duplicate inserts fail on the unique title index.
	if _, err := items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create item indexes: %w", err)
	}

	log.Printf("MongoDB connected: db=%s collection=%s", opts.Database, opts.Collection)
	return &Store{
		client:    client,
		db:        db,
		itemsColl: items,
	}, nil
}

func itemDocToModel(d mongoItemDoc) *models.Item {
	return &models.Item{
		ID:          d.ID,
		Title:       d.Title,
		URL:         d.URL,
		Description: d.Description,
		Amount:      d.Amount,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Item, error) {
	var doc mongoItemDoc
	if err := s.itemsColl.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return itemDocToModel(doc), nil
}

func (s *Store) FindByTitle(ctx context.Context, title string) (*models.Item, error) {
	return s.findOne(ctx, bson.M{"title": title})
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Item, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) Insert(ctx context.Context, item *models.Item) error {
	doc := mongoItemDoc{
		ID:          item.ID,
		Title:       item.Title,
		URL:         item.URL,
		Description: item.Description,
		Amount:      item.Amount,
		CreatedAt:   item.CreatedAt,
	}
	if _, err := s.itemsColl.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Item, error) {
	cur, err := s.itemsColl.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Item, 0)
	for cur.Next(ctx) {
		var doc mongoItemDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, itemDocToModel(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Reset(ctx context.Context) error {
	_, err := s.itemsColl.DeleteMany(ctx, bson.M{})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

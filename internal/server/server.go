// Package server wires configuration, storage, the registry and the HTTP router.
package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rummage/items/internal/config"
	"github.com/rummage/items/internal/handlers"
	appMiddleware "github.com/rummage/items/internal/middleware"
	"github.com/rummage/items/internal/services"
	"github.com/rummage/items/internal/storage"
	"github.com/rummage/items/internal/storage/memory"
	"github.com/rummage/items/internal/storage/mongostore"
	"github.com/rummage/items/internal/storage/redisstore"
	"github.com/rummage/items/internal/storage/sqlite"
)

// OpenStore connects the configured backend, wrapping it in the id cache when enabled.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.ItemStore, error) {
	var (
		store storage.ItemStore
		err   error
	)

	sc := cfg.Storage
	switch sc.Driver {
	case config.DriverSQLite:
		store, err = sqlite.NewStore(sc.SQLite.Path)
	case config.DriverMongo:
		store, err = mongostore.NewStore(ctx, mongostore.Options{
			URI:        sc.Mongo.URI,
			Database:   sc.Mongo.Database,
			Collection: sc.Mongo.Collection,
			ForceTLS12: sc.Mongo.ForceTLS12,
		})
	case config.DriverRedis:
		store, err = redisstore.Dial(ctx, sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB, sc.Redis.KeyPrefix)
	case config.DriverJSON:
		var file *storage.JSONStore
		file, err = storage.NewJSONStore(sc.DataDir, "items.json")
		if err == nil {
			store, err = memory.NewPersistent(file)
		}
	case config.DriverMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", sc.Driver, err)
	}

	if cfg.Cache.Enabled {
		store = storage.NewCachedStore(store, cfg.Cache.TTL)
	}
	return store, nil
}

// NewRouter builds the HTTP surface over itemService.
func NewRouter(cfg *config.Config, itemService services.ItemService) http.Handler {
	itemHandler := handlers.NewItemHandler(itemService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/items", func(r chi.Router) {
		r.Use(appMiddleware.RequireJSON)
		itemHandler.Routes(r)
	})

	return r
}

// SQLitePath resolves the configured database path for log output.
func SQLitePath(cfg *config.Config) string {
	p, err := filepath.Abs(cfg.Storage.SQLite.Path)
	if err != nil {
		return cfg.Storage.SQLite.Path
	}
	return p
}

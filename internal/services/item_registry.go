package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

const DefaultTimeout = 10 * time.Second

// ItemRegistry implements ItemService on top of a storage.ItemStore.
// It holds no item state of its own.
type ItemRegistry struct {
	store   storage.ItemStore
	timeout time.Duration
	tracer  trace.Tracer
	now     func() time.Time
}

var _ ItemService = (*ItemRegistry)(nil)

type RegistryOption func(*ItemRegistry)

// WithTimeout bounds every store round trip. Zero or negative disables the bound.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *ItemRegistry) { r.timeout = d }
}

func WithTracer(t trace.Tracer) RegistryOption {
	return func(r *ItemRegistry) { r.tracer = t }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *ItemRegistry) { r.now = now }
}

func NewItemRegistry(store storage.ItemStore, opts ...RegistryOption) *ItemRegistry {
	r := &ItemRegistry{
		store:   store,
		timeout: DefaultTimeout,
		tracer:  otel.Tracer("github.com/rummage/items/internal/services"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ItemRegistry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Create registers req unless its title is taken. The FindByTitle pre-check
// only saves a write; the store's own uniqueness guarantee decides races.
func (r *ItemRegistry) Create(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error) {
	ctx, span := r.tracer.Start(ctx, "items.create")
	defer span.End()

	if errs := req.Validate(); len(errs) > 0 {
		span.SetAttributes(attribute.Bool("items.invalid", true))
		return nil, &ValidationError{Fields: errs}
	}
	span.SetAttributes(attribute.String("items.title", req.Title))

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.store.FindByTitle(ctx, req.Title); err == nil {
		span.SetAttributes(attribute.Bool("items.duplicate", true))
		return nil, ErrDuplicateItem
	} else if !errors.Is(err, storage.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find by title")
		return nil, fmt.Errorf("checking title: %w", err)
	}

	item := &models.Item{
		ID:          uuid.New().String(),
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Amount:      req.Amount,
		// Millisecond precision is what every backend can round-trip.
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}

	if err := r.store.Insert(ctx, item); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			span.SetAttributes(attribute.Bool("items.duplicate", true))
			return nil, ErrDuplicateItem
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert")
		return nil, fmt.Errorf("inserting item: %w", err)
	}

	span.SetAttributes(attribute.String("items.id", item.ID))
	return item, nil
}

func (r *ItemRegistry) List(ctx context.Context) ([]*models.Item, error) {
	ctx, span := r.tracer.Start(ctx, "items.list")
	defer span.End()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	items, err := r.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list")
		return nil, fmt.Errorf("listing items: %w", err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	span.SetAttributes(attribute.Int("items.count", len(items)))
	return items, nil
}

func (r *ItemRegistry) GetByID(ctx context.Context, id string) (*models.Item, error) {
	ctx, span := r.tracer.Start(ctx, "items.get")
	defer span.End()
	span.SetAttributes(attribute.String("items.id", id))

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	item, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			span.SetAttributes(attribute.Bool("items.not_found", true))
			return nil, ErrItemNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "find by id")
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

func (r *ItemRegistry) Reset(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting items: %w", err)
	}
	return nil
}

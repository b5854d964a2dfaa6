package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"

	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

const itemColumns = `id, title, url, description, amount, created_at`

// Store implements storage.ItemStore on a SQLite database.
type Store struct {
	conn *sql.DB
}

var _ storage.ItemStore = (*Store)(nil)

// NewStore opens (and migrates) the database at path.
func NewStore(path string) (*Store, error) {
	conn, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn}, nil
}

func scanItem(scanner interface{ Scan(...any) error }) (*itemModel, error) {
	var m itemModel
	err := scanner.Scan(&m.ID, &m.Title, &m.URL, &m.Description, &m.Amount, &m.CreatedAt)
	return &m, err
}

func (s *Store) FindByTitle(ctx context.Context, title string) (*models.Item, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE title = ?`, title)
	m, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by title: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Item, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	m, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by id: %w", err)
	}
	return m.toDomain(), nil
}

// Insert relies on the unique index on title; a violation becomes storage.ErrConflict.
func (s *Store) Insert(ctx context.Context, item *models.Item) error {
	m := toItemModel(item)
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.URL, m.Description, m.Amount, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Item, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to reset items: %w", err)
	}
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return s.conn.Close()
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) || errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY)
}

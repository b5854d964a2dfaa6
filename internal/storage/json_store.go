package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rummage/items/internal/models"
)

// snapshot is the on-disk layout of an item data file.
type snapshot struct {
	Items []*models.Item `json:"items"`
}

// JSONStore keeps a snapshot of all items in a single JSON file.
type JSONStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewJSONStore creates a new JSON store at the specified path
func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	return &JSONStore{
		filePath: filepath.Join(dataDir, filename),
	}, nil
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string {
	return s.filePath
}

// LoadItems reads the snapshot. A missing file yields no items.
func (s *JSONStore) LoadItems() ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Item{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := json.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.filePath, err)
	}
	if snap.Items == nil {
		snap.Items = []*models.Item{}
	}
	return snap.Items, nil
}

// SaveItems replaces the snapshot with items.
func (s *JSONStore) SaveItems(items []*models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to temp file first, then rename (atomic operation)
	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot{Items: items}); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}

// Exists checks if the storage file exists
func (s *JSONStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.filePath)
	return err == nil
}

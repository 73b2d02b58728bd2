package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"
)

// FileStore persists the queue as one JSON array file.
//
// Every operation is a read-modify-write of the whole file under a single
// mutex: losing an interleaved append or update would silently drop a
// pending mutation, so unlike the response cache this store serializes all
// access. Writes go through a temp file and rename so a crash mid-write
// leaves the previous queue intact.
//
// A missing or unparseable file is treated as an empty queue; the queue
// must never crash its caller over a corrupt local file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed queue store at path.
// The parent directory is created if it doesn't exist.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, oerrors.Wrap(oerrors.ErrCodeStorage, err, "creating queue dir")
	}
	return &FileStore{path: path}, nil
}

// Path returns the queue file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() []Item {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

func (s *FileStore) save(items []Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return oerrors.Wrap(oerrors.ErrCodeStorage, err, "encoding queue")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return oerrors.Wrap(oerrors.ErrCodeStorage, err, "writing queue file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oerrors.Wrap(oerrors.ErrCodeStorage, err, "replacing queue file")
	}
	return nil
}

// All returns every item in the store, oldest first.
func (s *FileStore) All(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// Pending returns items with status Added, oldest first.
func (s *FileStore) Pending(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []Item
	for _, item := range s.load() {
		if item.Status == StatusAdded {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

// Append adds a new item.
func (s *FileStore) Append(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(append(s.load(), item))
}

// Update replaces the stored item with the same ID.
func (s *FileStore) Update(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return s.save(items)
		}
	}
	return oerrors.New(oerrors.ErrCodeStorage, "queue item %s not in store", item.ID)
}

// Clear removes every item.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

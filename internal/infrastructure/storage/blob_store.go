// Package storage provides object storage implementations for invoice
// artifacts.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when the requested object does not exist
var ErrNotFound = errors.New("object not found")

// BlobStore defines the interface for storing and retrieving binary artifacts
// under string keys.
type BlobStore interface {
	// Put stores data under the given key, overwriting any existing object
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves the object stored under the given key.
	// Returns ErrNotFound if no object exists.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is stored under the given key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object stored under the given key.
	// Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryBlobStore is an in-memory BlobStore used in tests and local
// development without an object storage backend.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBlobStore creates an empty MemoryBlobStore
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

// Ensure MemoryBlobStore implements BlobStore
var _ BlobStore = (*MemoryBlobStore)(nil)

// Put stores data under the given key
func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[key] = copied

	return nil
}

// Get retrieves the object stored under the given key
func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Exists reports whether an object is stored under the given key
func (s *MemoryBlobStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}

// Delete removes the object stored under the given key
func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Len returns the number of stored objects
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}

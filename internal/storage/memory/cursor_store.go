package memory

import (
	"context"
	"sync"
	"time"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// CursorStore is an in-memory implementation of storage.CursorStore.
type CursorStore struct {
	mu   sync.RWMutex
	data map[string]domain.CursorState
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		data: make(map[string]domain.CursorState),
	}
}

var _ storage.CursorStore = (*CursorStore)(nil)

// Get returns the cursor for key. Returns ErrNotFound if not set.
func (s *CursorStore) Get(_ context.Context, key string) (*domain.CursorState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

// Set upserts the cursor for key.
func (s *CursorStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = domain.CursorState{Key: key, Value: value, UpdatedAt: time.Now().UnixMilli()}
	return nil
}

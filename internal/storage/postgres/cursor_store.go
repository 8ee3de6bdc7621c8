package postgres

import (
	"context"
	"fmt"
	"time"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// CursorStore implements storage.CursorStore using PostgreSQL.
type CursorStore struct {
	pool *Pool
}

// NewCursorStore creates a new CursorStore.
func NewCursorStore(pool *Pool) *CursorStore {
	return &CursorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CursorStore = (*CursorStore)(nil)

// Get returns the cursor for key. Returns ErrNotFound if not set.
func (s *CursorStore) Get(ctx context.Context, key string) (*domain.CursorState, error) {
	var c domain.CursorState
	err := s.pool.QueryRow(ctx, `
		SELECT key, value, updated_at
		FROM cursor_state
		WHERE key = $1
	`, key).Scan(&c.Key, &c.Value, &c.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cursor: %w", err)
	}
	return &c, nil
}

// Set upserts the cursor for key.
func (s *CursorStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO cursor_state (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// TokenMetricStore is an in-memory implementation of storage.TokenMetricStore.
type TokenMetricStore struct {
	mu   sync.RWMutex
	data map[string]domain.TokenMetric // keyed by date
}

// NewTokenMetricStore creates a new in-memory token metric store.
func NewTokenMetricStore() *TokenMetricStore {
	return &TokenMetricStore{
		data: make(map[string]domain.TokenMetric),
	}
}

var _ storage.TokenMetricStore = (*TokenMetricStore)(nil)

// Upsert writes the row for m.Date.
func (s *TokenMetricStore) Upsert(_ context.Context, m domain.TokenMetric) error {
	if m.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[m.Date] = m
	return nil
}

// Latest returns the newest row. Returns ErrNotFound if empty.
func (s *TokenMetricStore) Latest(_ context.Context) (*domain.TokenMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.TokenMetric
	for _, m := range s.data {
		if latest == nil || m.Date > latest.Date {
			c := m
			latest = &c
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest, nil
}

// Since returns rows with date >= from, ordered by date ASC.
func (s *TokenMetricStore) Since(_ context.Context, from string) ([]domain.TokenMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TokenMetric
	for _, m := range s.data {
		if m.Date >= from {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out, nil
}

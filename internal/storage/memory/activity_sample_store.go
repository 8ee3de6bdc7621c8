package memory

import (
	"context"
	"sync"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// ActivitySampleStore is an in-memory implementation of storage.ActivitySampleSink.
type ActivitySampleStore struct {
	mu   sync.RWMutex
	data []domain.ActivitySample
}

// NewActivitySampleStore creates a new in-memory activity sample store.
func NewActivitySampleStore() *ActivitySampleStore {
	return &ActivitySampleStore{}
}

var _ storage.ActivitySampleSink = (*ActivitySampleStore)(nil)

// InsertBulk appends samples.
func (s *ActivitySampleStore) InsertBulk(_ context.Context, samples []domain.ActivitySample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sm := range samples {
		sm.Programs = append([]string(nil), sm.Programs...)
		s.data = append(s.data, sm)
	}
	return nil
}

// All returns every stored sample in insertion order.
func (s *ActivitySampleStore) All() []domain.ActivitySample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.ActivitySample(nil), s.data...)
}

package memory

import (
	"context"
	"sort"
	"sync"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.PipelineRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[int64]*domain.PipelineRun),
	}
}

var _ storage.RunStore = (*RunStore)(nil)

// Start appends a running row and returns its id.
func (s *RunStore) Start(_ context.Context, stage string, startedAt int64) (int64, error) {
	if stage == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.data[s.nextID] = &domain.PipelineRun{
		ID:        s.nextID,
		Stage:     stage,
		Status:    domain.RunStatusRunning,
		StartedAt: startedAt,
	}
	return s.nextID, nil
}

// Finish moves a running row to status exactly once.
func (s *RunStore) Finish(_ context.Context, id int64, status domain.RunStatus, finishedAt, records int64, notes string) error {
	if status == domain.RunStatusRunning {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[id]
	if !ok || r.Status != domain.RunStatusRunning {
		return storage.ErrNotFound
	}
	r.Status = status
	r.FinishedAt = &finishedAt
	r.Records = records
	r.Notes = notes
	return nil
}

// Recent returns up to limit rows newest first, skipping excludeID.
func (s *RunStore) Recent(_ context.Context, limit int, excludeID int64) ([]domain.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PipelineRun, 0, len(s.data))
	for id, r := range s.data {
		if id == excludeID {
			continue
		}
		c := *r
		if r.FinishedAt != nil {
			f := *r.FinishedAt
			c.FinishedAt = &f
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt > out[j].StartedAt
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

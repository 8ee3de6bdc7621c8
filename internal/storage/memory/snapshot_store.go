package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailySnapshot // keyed by date
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.DailySnapshot),
	}
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

func (s *SnapshotStore) row(date string) *domain.DailySnapshot {
	d, ok := s.data[date]
	if !ok {
		d = &domain.DailySnapshot{Date: date}
		s.data[date] = d
	}
	d.UpdatedAt = time.Now().UnixMilli()
	return d
}

// UpsertSnapshotTotals writes the snapshot-stage columns for t.Date.
func (s *SnapshotStore) UpsertSnapshotTotals(_ context.Context, t domain.SnapshotTotals) error {
	if t.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.row(t.Date)
	d.HolderCount = t.HolderCount
	d.TotalSOLHeld = t.TotalSOLHeld
	d.TotalValueUSD = t.TotalValueUSD
	d.SOLPrice = t.SOLPrice
	d.TokenPrice = t.TokenPrice
	d.TokenMarketCap = t.TokenMarketCap
	d.TokenStakedPct = t.TokenStakedPct
	return nil
}

// UpsertActivityTotals writes the activity-stage columns for t.Date.
func (s *SnapshotStore) UpsertActivityTotals(_ context.Context, t domain.ActivityTotals) error {
	if t.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.row(t.Date)
	d.ActiveWallets = t.ActiveWallets
	d.TxCount = t.TxCount
	d.SwapCount = t.SwapCount
	d.SwapVolumeSOL = t.SwapVolumeSOL
	d.ActivitySampleSize = t.SampleSize
	d.ActivityScaleFactor = t.ScaleFactor
	return nil
}

// Get returns the row for date. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Get(_ context.Context, date string) (*domain.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[date]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *d
	return &c, nil
}

// Latest returns up to n rows, newest first.
func (s *SnapshotStore) Latest(_ context.Context, n int) ([]domain.DailySnapshot, error) {
	all := s.sorted()
	sort.Slice(all, func(i, j int) bool {
		return all[i].Date > all[j].Date
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Since returns rows with date >= from, ordered by date ASC.
func (s *SnapshotStore) Since(_ context.Context, from string) ([]domain.DailySnapshot, error) {
	var out []domain.DailySnapshot
	for _, d := range s.sorted() {
		if d.Date >= from {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *SnapshotStore) sorted() []domain.DailySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DailySnapshot, 0, len(s.data))
	for _, d := range s.data {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

package memory

import (
	"context"
	"sort"
	"sync"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

type protocolKey struct {
	date      string
	programID string
}

// ProtocolStore is an in-memory implementation of storage.ProtocolStore.
type ProtocolStore struct {
	mu   sync.RWMutex
	data map[protocolKey]domain.ProtocolInteraction
}

// NewProtocolStore creates a new in-memory protocol store.
func NewProtocolStore() *ProtocolStore {
	return &ProtocolStore{
		data: make(map[protocolKey]domain.ProtocolInteraction),
	}
}

var _ storage.ProtocolStore = (*ProtocolStore)(nil)

// UpsertBulk writes rows keyed by (date, program_id).
func (s *ProtocolStore) UpsertBulk(_ context.Context, rows []domain.ProtocolInteraction) error {
	for _, r := range rows {
		if r.Date == "" || r.ProgramID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		s.data[protocolKey{r.Date, r.ProgramID}] = r
	}
	return nil
}

// LatestDate returns the newest date with rows, at or before onOrBefore when
// it is set.
func (s *ProtocolStore) LatestDate(_ context.Context, onOrBefore string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := ""
	for k := range s.data {
		if onOrBefore != "" && k.date > onOrBefore {
			continue
		}
		if k.date > latest {
			latest = k.date
		}
	}
	if latest == "" {
		return "", storage.ErrNotFound
	}
	return latest, nil
}

// ByDate returns a day's rows ordered by unique_wallets DESC.
func (s *ProtocolStore) ByDate(_ context.Context, date string) ([]domain.ProtocolInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ProtocolInteraction
	for k, r := range s.data {
		if k.date == date {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UniqueWallets != out[j].UniqueWallets {
			return out[i].UniqueWallets > out[j].UniqueWallets
		}
		return out[i].ProgramID < out[j].ProgramID
	})
	return out, nil
}

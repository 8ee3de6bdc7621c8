package memory

import (
	"context"
	"sort"
	"sync"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Wallet // keyed by address
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		data: make(map[string]*domain.Wallet),
	}
}

var _ storage.WalletStore = (*WalletStore)(nil)

// Upsert inserts or updates wallets and reports how many were new.
func (s *WalletStore) Upsert(_ context.Context, ws []domain.WalletMint, firstSeen string, deactivateMissing bool) (int, error) {
	for _, w := range ws {
		if w.Wallet == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[string]struct{}, len(ws))
	inserted := 0
	for _, w := range ws {
		if _, dup := present[w.Wallet]; dup {
			continue
		}
		present[w.Wallet] = struct{}{}

		if existing, ok := s.data[w.Wallet]; ok {
			existing.Mint = w.Mint
			existing.Active = true
			continue
		}
		s.data[w.Wallet] = &domain.Wallet{
			Address:   w.Wallet,
			Mint:      w.Mint,
			FirstSeen: firstSeen,
			Active:    true,
		}
		inserted++
	}

	if deactivateMissing {
		for addr, w := range s.data {
			if _, ok := present[addr]; !ok {
				w.Active = false
			}
		}
	}
	return inserted, nil
}

// ListActive returns all active wallets ordered by address.
func (s *WalletStore) ListActive(_ context.Context) ([]domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Wallet
	for _, w := range s.data {
		if w.Active {
			out = append(out, copyWallet(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out, nil
}

// Count returns the number of wallets, or of active wallets only.
func (s *WalletStore) Count(_ context.Context, activeOnly bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, w := range s.data {
		if w.Active || !activeOnly {
			n++
		}
	}
	return n, nil
}

// MarkActive sets last_active = date for known addresses.
func (s *WalletStore) MarkActive(_ context.Context, addresses []string, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, addr := range addresses {
		if w, ok := s.data[addr]; ok {
			d := date
			w.LastActive = &d
		}
	}
	return nil
}

func copyWallet(w *domain.Wallet) domain.Wallet {
	c := *w
	if w.LastActive != nil {
		d := *w.LastActive
		c.LastActive = &d
	}
	return c
}

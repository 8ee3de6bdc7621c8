package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// HoldingStore is an in-memory implementation of storage.HoldingStore.
type HoldingStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.WalletHolding // wallet -> mint -> holding
}

// NewHoldingStore creates a new in-memory holding store.
func NewHoldingStore() *HoldingStore {
	return &HoldingStore{
		data: make(map[string]map[string]domain.WalletHolding),
	}
}

var _ storage.HoldingStore = (*HoldingStore)(nil)

// ReplaceForWallets upserts holdings and prunes stale mints of the listed
// wallets. Validation happens before any write so a bad row changes nothing.
func (s *HoldingStore) ReplaceForWallets(_ context.Context, wallets []string, holdings []domain.WalletHolding) error {
	for _, h := range holdings {
		if h.Wallet == "" || h.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	keep := make(map[string]map[string]struct{})
	for _, h := range holdings {
		byMint, ok := s.data[h.Wallet]
		if !ok {
			byMint = make(map[string]domain.WalletHolding)
			s.data[h.Wallet] = byMint
		}
		h.UpdatedAt = now
		if h.AmountRaw == "" {
			h.AmountRaw = "0"
		}
		byMint[h.Mint] = h

		if keep[h.Wallet] == nil {
			keep[h.Wallet] = make(map[string]struct{})
		}
		keep[h.Wallet][h.Mint] = struct{}{}
	}

	for _, w := range wallets {
		for mint := range s.data[w] {
			if _, ok := keep[w][mint]; !ok {
				delete(s.data[w], mint)
			}
		}
		if len(s.data[w]) == 0 {
			delete(s.data, w)
		}
	}
	return nil
}

// ByWallet returns a wallet's holdings ordered by mint.
func (s *HoldingStore) ByWallet(_ context.Context, wallet string) ([]domain.WalletHolding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.WalletHolding
	for _, h := range s.data[wallet] {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Mint < out[j].Mint
	})
	return out, nil
}

// SummaryByToken aggregates positive-value holdings by mint.
func (s *HoldingStore) SummaryByToken(_ context.Context, limit int) ([]domain.TokenHoldingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMint := make(map[string]*domain.TokenHoldingSummary)
	for _, mints := range s.data {
		for _, h := range mints {
			if h.ValueUSD <= 0 {
				continue
			}
			t, ok := byMint[h.Mint]
			if !ok {
				t = &domain.TokenHoldingSummary{Mint: h.Mint}
				byMint[h.Mint] = t
			}
			if h.Symbol > t.Symbol {
				t.Symbol = h.Symbol
			}
			t.TotalAmount += h.Amount
			t.TotalValue += h.ValueUSD
			t.Holders++
		}
	}

	out := make([]domain.TokenHoldingSummary, 0, len(byMint))
	for _, t := range byMint {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Mint < out[j].Mint
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

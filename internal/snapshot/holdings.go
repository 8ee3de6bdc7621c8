package snapshot

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"skr-stats/internal/batch"
	"skr-stats/internal/catalog"
	"skr-stats/internal/domain"
	"skr-stats/internal/solana"
)

const (
	tokenAccountPageLimit = 1000
	tokenAccountMaxPages  = 10
)

// fetchedHoldings are the raw non-zero token accounts of the wallets whose
// fetch succeeded.
type fetchedHoldings struct {
	ok       []string
	accounts []solana.TokenAccount
}

func (f fetchedHoldings) mints() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range f.accounts {
		if _, ok := seen[a.Mint]; !ok {
			seen[a.Mint] = struct{}{}
			out = append(out, a.Mint)
		}
	}
	return out
}

func (f fetchedHoldings) holdersOf(mint string) int {
	holders := make(map[string]struct{})
	for _, a := range f.accounts {
		if a.Mint == mint {
			holders[a.Owner] = struct{}{}
		}
	}
	return len(holders)
}

// fetchHoldings pages getTokenAccounts for every sampled wallet. A failed
// wallet is left out of ok so its stored holdings survive.
func (s *Stage) fetchHoldings(ctx context.Context, wallets []string) fetchedHoldings {
	results := batch.Process(ctx, wallets, s.batchOptions("holdings"),
		func(ctx context.Context, wallet string) ([]solana.TokenAccount, error) {
			return s.walletAccounts(ctx, wallet)
		})

	var out fetchedHoldings
	for i, r := range results {
		s.opts.Metrics.RecordBatchItem(domain.StageSnapshot, r.Err)
		if r.Err != nil {
			s.logger.Warn("holdings fetch failed", zap.String("wallet", wallets[i]), zap.Error(r.Err))
			continue
		}
		out.ok = append(out.ok, wallets[i])
		out.accounts = append(out.accounts, r.Value...)
	}
	return out
}

func (s *Stage) walletAccounts(ctx context.Context, wallet string) ([]solana.TokenAccount, error) {
	var out []solana.TokenAccount
	cursor := ""
	for page := 0; page < tokenAccountMaxPages; page++ {
		resp, err := s.oracle.GetTokenAccounts(ctx, solana.TokenAccountsParams{
			Owner:  wallet,
			Limit:  tokenAccountPageLimit,
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}
		for _, a := range resp.TokenAccounts {
			if a.Amount == 0 {
				continue
			}
			a.Owner = wallet
			out = append(out, a)
		}
		if resp.Cursor == "" || len(resp.TokenAccounts) < tokenAccountPageLimit {
			break
		}
		cursor = resp.Cursor
	}
	return out, nil
}

type tokenMeta struct {
	symbol   string
	decimals int // -1 when unknown
}

// resolveMetadata finds symbol and decimals per mint. Catalog entries win;
// the rest come from the asset index.
func (s *Stage) resolveMetadata(ctx context.Context, mints []string) map[string]tokenMeta {
	meta := make(map[string]tokenMeta, len(mints))
	var lookup []string
	for _, m := range mints {
		if t, ok := catalog.LookupToken(m); ok {
			meta[m] = tokenMeta{symbol: t.Symbol, decimals: t.Decimals}
			if t.Decimals >= 0 {
				continue
			}
		} else {
			meta[m] = tokenMeta{decimals: -1}
		}
		lookup = append(lookup, m)
	}

	for _, chunk := range batch.Chunk(lookup, solana.MaxAssetBatch) {
		assets, err := s.oracle.GetAssetBatch(ctx, chunk)
		if err != nil {
			s.logger.Warn("token metadata lookup failed", zap.Int("mints", len(chunk)), zap.Error(err))
			continue
		}
		for i, a := range assets {
			if a == nil {
				continue
			}
			m := meta[chunk[i]]
			if m.symbol == "" {
				m.symbol = a.Symbol()
			}
			m.decimals = a.Decimals()
			meta[chunk[i]] = m
		}
	}
	return meta
}

// valueHoldings converts raw accounts to holdings and sums their USD value.
// A mint without decimals is stored with zero value.
func valueHoldings(f fetchedHoldings, meta map[string]tokenMeta, prices map[string]float64) ([]domain.WalletHolding, decimal.Decimal) {
	total := decimal.Zero
	holdings := make([]domain.WalletHolding, 0, len(f.accounts))
	byKey := make(map[[2]string]int, len(f.accounts))

	for _, a := range f.accounts {
		raw := decimal.NewFromUint64(a.Amount)
		key := [2]string{a.Owner, a.Mint}
		if i, dup := byKey[key]; dup {
			// Several accounts of one mint under one owner fold together.
			prev, _ := decimal.NewFromString(holdings[i].AmountRaw)
			raw = raw.Add(prev)
			total = total.Sub(decimal.NewFromFloat(holdings[i].ValueUSD))
		}

		m := meta[a.Mint]
		h := domain.WalletHolding{
			Wallet:    a.Owner,
			Mint:      a.Mint,
			Symbol:    m.symbol,
			AmountRaw: raw.String(),
			Decimals:  m.decimals,
		}
		if m.decimals >= 0 {
			ui := raw.Shift(-int32(m.decimals))
			value := ui.Mul(decimal.NewFromFloat(prices[a.Mint]))
			h.Amount = ui.InexactFloat64()
			h.ValueUSD = value.InexactFloat64()
			total = total.Add(value)
		}

		if i, dup := byKey[key]; dup {
			holdings[i] = h
			continue
		}
		byKey[key] = len(holdings)
		holdings = append(holdings, h)
	}
	return holdings, total
}

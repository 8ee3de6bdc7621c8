package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// HoldingStore implements storage.HoldingStore using PostgreSQL.
type HoldingStore struct {
	pool *Pool
}

// NewHoldingStore creates a new HoldingStore.
func NewHoldingStore(pool *Pool) *HoldingStore {
	return &HoldingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HoldingStore = (*HoldingStore)(nil)

// ReplaceForWallets upserts holdings and prunes stale mints of the listed
// wallets in one transaction. Wallets not listed keep their rows.
func (s *HoldingStore) ReplaceForWallets(ctx context.Context, wallets []string, holdings []domain.WalletHolding) error {
	n := len(holdings)
	owners := make([]string, 0, n)
	mints := make([]string, 0, n)
	symbols := make([]string, 0, n)
	raws := make([]string, 0, n)
	decimals := make([]int32, 0, n)
	amounts := make([]float64, 0, n)
	values := make([]float64, 0, n)
	for _, h := range holdings {
		if h.Wallet == "" || h.Mint == "" {
			return storage.ErrInvalidInput
		}
		raw := h.AmountRaw
		if raw == "" {
			raw = "0"
		}
		owners = append(owners, h.Wallet)
		mints = append(mints, h.Mint)
		symbols = append(symbols, h.Symbol)
		raws = append(raws, raw)
		decimals = append(decimals, int32(h.Decimals))
		amounts = append(amounts, h.Amount)
		values = append(values, h.ValueUSD)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if n > 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO wallet_holdings (
					wallet, mint, symbol, amount_raw, decimals, amount, value_usd, updated_at
				)
				SELECT t.wallet, t.mint, t.symbol, t.amount_raw::numeric, t.decimals, t.amount, t.value_usd, NOW()
				FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::int4[], $6::float8[], $7::float8[])
				     AS t(wallet, mint, symbol, amount_raw, decimals, amount, value_usd)
				ON CONFLICT (wallet, mint) DO UPDATE
				SET symbol = EXCLUDED.symbol,
				    amount_raw = EXCLUDED.amount_raw,
				    decimals = EXCLUDED.decimals,
				    amount = EXCLUDED.amount,
				    value_usd = EXCLUDED.value_usd,
				    updated_at = NOW()
			`, owners, mints, symbols, raws, decimals, amounts, values)
			if err != nil {
				return fmt.Errorf("upsert holdings: %w", err)
			}
		}

		if len(wallets) > 0 {
			_, err := tx.Exec(ctx, `
				DELETE FROM wallet_holdings h
				WHERE h.wallet = ANY($1::text[])
				  AND NOT EXISTS (
				      SELECT 1
				      FROM unnest($2::text[], $3::text[]) AS k(wallet, mint)
				      WHERE k.wallet = h.wallet AND k.mint = h.mint
				  )
			`, wallets, owners, mints)
			if err != nil {
				return fmt.Errorf("prune holdings: %w", err)
			}
		}
		return nil
	})
}

// ByWallet returns a wallet's holdings ordered by mint.
func (s *HoldingStore) ByWallet(ctx context.Context, wallet string) ([]domain.WalletHolding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wallet, mint, symbol, amount_raw::text, decimals, amount, value_usd,
		       (EXTRACT(EPOCH FROM updated_at) * 1000)::BIGINT
		FROM wallet_holdings
		WHERE wallet = $1
		ORDER BY mint ASC
	`, wallet)
	if err != nil {
		return nil, fmt.Errorf("holdings by wallet: %w", err)
	}
	defer rows.Close()

	var out []domain.WalletHolding
	for rows.Next() {
		var h domain.WalletHolding
		var dec int32
		if err := rows.Scan(&h.Wallet, &h.Mint, &h.Symbol, &h.AmountRaw, &dec, &h.Amount, &h.ValueUSD, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan holding row: %w", err)
		}
		h.Decimals = int(dec)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holding rows: %w", err)
	}
	return out, nil
}

// SummaryByToken aggregates positive-value holdings by mint.
func (s *HoldingStore) SummaryByToken(ctx context.Context, limit int) ([]domain.TokenHoldingSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT mint, MAX(symbol), SUM(amount), SUM(value_usd), COUNT(DISTINCT wallet)
		FROM wallet_holdings
		WHERE value_usd > 0
		GROUP BY mint
		ORDER BY SUM(value_usd) DESC, mint ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("holdings summary: %w", err)
	}
	defer rows.Close()

	var out []domain.TokenHoldingSummary
	for rows.Next() {
		var t domain.TokenHoldingSummary
		if err := rows.Scan(&t.Mint, &t.Symbol, &t.TotalAmount, &t.TotalValue, &t.Holders); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return out, nil
}

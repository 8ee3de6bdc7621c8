package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Upsert writes the discovered (wallet, mint) pairs.
// Duplicate addresses within ws keep their first mint. first_seen is only set
// on insert.
func (s *WalletStore) Upsert(ctx context.Context, ws []domain.WalletMint, firstSeen string, deactivateMissing bool) (int, error) {
	addresses := make([]string, 0, len(ws))
	mints := make([]string, 0, len(ws))
	seen := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		if w.Wallet == "" {
			return 0, storage.ErrInvalidInput
		}
		if _, ok := seen[w.Wallet]; ok {
			continue
		}
		seen[w.Wallet] = struct{}{}
		addresses = append(addresses, w.Wallet)
		mints = append(mints, w.Mint)
	}

	inserted := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if len(addresses) > 0 {
			rows, err := tx.Query(ctx, `
				INSERT INTO wallets (address, mint, first_seen, active, updated_at)
				SELECT t.address, t.mint, $3::date, TRUE, NOW()
				FROM unnest($1::text[], $2::text[]) AS t(address, mint)
				ON CONFLICT (address) DO UPDATE
				SET mint = EXCLUDED.mint,
				    active = TRUE,
				    updated_at = NOW()
				RETURNING (xmax = 0)
			`, addresses, mints, firstSeen)
			if err != nil {
				return fmt.Errorf("upsert wallets: %w", err)
			}
			flags, err := pgx.CollectRows(rows, pgx.RowTo[bool])
			if err != nil {
				return fmt.Errorf("collect upsert result: %w", err)
			}
			for _, isNew := range flags {
				if isNew {
					inserted++
				}
			}
		}

		if deactivateMissing {
			_, err := tx.Exec(ctx, `
				UPDATE wallets
				SET active = FALSE, updated_at = NOW()
				WHERE active AND NOT (address = ANY($1::text[]))
			`, addresses)
			if err != nil {
				return fmt.Errorf("deactivate missing wallets: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListActive returns all active wallets ordered by address.
func (s *WalletStore) ListActive(ctx context.Context) ([]domain.Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address, mint,
		       to_char(first_seen, 'YYYY-MM-DD'),
		       to_char(last_active, 'YYYY-MM-DD'),
		       active
		FROM wallets
		WHERE active
		ORDER BY address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.Address, &w.Mint, &w.FirstSeen, &w.LastActive, &w.Active); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// Count returns the number of wallets, or of active wallets only.
func (s *WalletStore) Count(ctx context.Context, activeOnly bool) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM wallets WHERE active OR NOT $1
	`, activeOnly).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count wallets: %w", err)
	}
	return n, nil
}

// MarkActive sets last_active for addresses in one statement.
func (s *WalletStore) MarkActive(ctx context.Context, addresses []string, date string) error {
	if len(addresses) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE wallets
			SET last_active = $2::date, updated_at = NOW()
			WHERE address = ANY($1::text[])
		`, addresses, date)
		if err != nil {
			return fmt.Errorf("mark wallets active: %w", err)
		}
		return nil
	})
}

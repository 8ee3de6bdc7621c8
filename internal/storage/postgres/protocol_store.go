package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// ProtocolStore implements storage.ProtocolStore using PostgreSQL.
type ProtocolStore struct {
	pool *Pool
}

// NewProtocolStore creates a new ProtocolStore.
func NewProtocolStore(pool *Pool) *ProtocolStore {
	return &ProtocolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProtocolStore = (*ProtocolStore)(nil)

// UpsertBulk writes rows keyed by (date, program_id) in one transaction.
func (s *ProtocolStore) UpsertBulk(ctx context.Context, rows []domain.ProtocolInteraction) error {
	if len(rows) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(`
				INSERT INTO protocol_interactions (
					date, program_id, name, category, unique_wallets, tx_count, volume_sol
				) VALUES ($1::date, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (date, program_id) DO UPDATE
				SET name = EXCLUDED.name,
				    category = EXCLUDED.category,
				    unique_wallets = EXCLUDED.unique_wallets,
				    tx_count = EXCLUDED.tx_count,
				    volume_sol = EXCLUDED.volume_sol
			`, r.Date, r.ProgramID, r.Name, r.Category, r.UniqueWallets, r.TxCount, r.VolumeSOL)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert protocol interactions: %w", err)
		}
		return nil
	})
}

// LatestDate returns the newest date with rows, at or before onOrBefore when
// it is set.
func (s *ProtocolStore) LatestDate(ctx context.Context, onOrBefore string) (string, error) {
	var date *string
	err := s.pool.QueryRow(ctx, `
		SELECT to_char(MAX(date), 'YYYY-MM-DD')
		FROM protocol_interactions
		WHERE $1::text = '' OR date <= NULLIF($1::text, '')::date
	`, onOrBefore).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("latest protocol date: %w", err)
	}
	if date == nil {
		return "", storage.ErrNotFound
	}
	return *date, nil
}

// ByDate returns a day's rows ordered by unique_wallets DESC.
func (s *ProtocolStore) ByDate(ctx context.Context, date string) ([]domain.ProtocolInteraction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), program_id, name, category,
		       unique_wallets, tx_count, volume_sol
		FROM protocol_interactions
		WHERE date = $1::date
		ORDER BY unique_wallets DESC, program_id ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("protocol interactions by date: %w", err)
	}
	defer rows.Close()

	var out []domain.ProtocolInteraction
	for rows.Next() {
		var p domain.ProtocolInteraction
		if err := rows.Scan(&p.Date, &p.ProgramID, &p.Name, &p.Category, &p.UniqueWallets, &p.TxCount, &p.VolumeSOL); err != nil {
			return nil, fmt.Errorf("scan protocol row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate protocol rows: %w", err)
	}
	return out, nil
}

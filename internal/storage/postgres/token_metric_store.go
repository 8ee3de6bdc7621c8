package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// TokenMetricStore implements storage.TokenMetricStore using PostgreSQL.
type TokenMetricStore struct {
	pool *Pool
}

// NewTokenMetricStore creates a new TokenMetricStore.
func NewTokenMetricStore(pool *Pool) *TokenMetricStore {
	return &TokenMetricStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetricStore = (*TokenMetricStore)(nil)

const tokenMetricColumns = `
	to_char(date, 'YYYY-MM-DD'), price, market_cap, volume_24h,
	circulating_supply, total_staked, staked_pct, holder_count
`

// Upsert writes the row for m.Date.
func (s *TokenMetricStore) Upsert(ctx context.Context, m domain.TokenMetric) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_metrics (
			date, price, market_cap, volume_24h, circulating_supply,
			total_staked, staked_pct, holder_count
		) VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date) DO UPDATE
		SET price = EXCLUDED.price,
		    market_cap = EXCLUDED.market_cap,
		    volume_24h = EXCLUDED.volume_24h,
		    circulating_supply = EXCLUDED.circulating_supply,
		    total_staked = EXCLUDED.total_staked,
		    staked_pct = EXCLUDED.staked_pct,
		    holder_count = EXCLUDED.holder_count
	`,
		m.Date,
		m.Price,
		m.MarketCap,
		m.Volume24h,
		m.CirculatingSupply,
		m.TotalStaked,
		m.StakedPct,
		m.HolderCount,
	)
	if err != nil {
		return fmt.Errorf("upsert token metric: %w", err)
	}
	return nil
}

// Latest returns the newest row. Returns ErrNotFound if empty.
func (s *TokenMetricStore) Latest(ctx context.Context) (*domain.TokenMetric, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tokenMetricColumns+`
		FROM token_metrics
		ORDER BY date DESC
		LIMIT 1
	`)
	m, err := scanTokenMetric(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("latest token metric: %w", err)
	}
	return m, nil
}

// Since returns rows with date >= from, ordered by date ASC.
func (s *TokenMetricStore) Since(ctx context.Context, from string) ([]domain.TokenMetric, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+tokenMetricColumns+`
		FROM token_metrics
		WHERE date >= $1::date
		ORDER BY date ASC
	`, from)
	if err != nil {
		return nil, fmt.Errorf("token metrics since: %w", err)
	}
	defer rows.Close()

	var out []domain.TokenMetric
	for rows.Next() {
		m, err := scanTokenMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token metric row: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token metric rows: %w", err)
	}
	return out, nil
}

func scanTokenMetric(row pgx.Row) (*domain.TokenMetric, error) {
	var m domain.TokenMetric
	err := row.Scan(
		&m.Date,
		&m.Price,
		&m.MarketCap,
		&m.Volume24h,
		&m.CirculatingSupply,
		&m.TotalStaked,
		&m.StakedPct,
		&m.HolderCount,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

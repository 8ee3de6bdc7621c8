package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	to_char(date, 'YYYY-MM-DD'),
	holder_count, total_sol_held, total_value_usd, sol_price,
	token_price, token_market_cap, token_staked_pct,
	active_wallets, tx_count, swap_count, swap_volume_sol,
	activity_sample_size, activity_scale_factor,
	(EXTRACT(EPOCH FROM updated_at) * 1000)::BIGINT
`

// UpsertSnapshotTotals writes the snapshot-stage columns, leaving activity
// columns untouched.
func (s *SnapshotStore) UpsertSnapshotTotals(ctx context.Context, t domain.SnapshotTotals) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_snapshots (
			date, holder_count, total_sol_held, total_value_usd, sol_price,
			token_price, token_market_cap, token_staked_pct, updated_at
		) VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (date) DO UPDATE
		SET holder_count = EXCLUDED.holder_count,
		    total_sol_held = EXCLUDED.total_sol_held,
		    total_value_usd = EXCLUDED.total_value_usd,
		    sol_price = EXCLUDED.sol_price,
		    token_price = EXCLUDED.token_price,
		    token_market_cap = EXCLUDED.token_market_cap,
		    token_staked_pct = EXCLUDED.token_staked_pct,
		    updated_at = NOW()
	`,
		t.Date,
		t.HolderCount,
		t.TotalSOLHeld,
		t.TotalValueUSD,
		t.SOLPrice,
		t.TokenPrice,
		t.TokenMarketCap,
		t.TokenStakedPct,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot totals: %w", err)
	}
	return nil
}

// UpsertActivityTotals writes the activity-stage columns, leaving snapshot
// columns untouched.
func (s *SnapshotStore) UpsertActivityTotals(ctx context.Context, t domain.ActivityTotals) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_snapshots (
			date, active_wallets, tx_count, swap_count, swap_volume_sol,
			activity_sample_size, activity_scale_factor, updated_at
		) VALUES ($1::date, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (date) DO UPDATE
		SET active_wallets = EXCLUDED.active_wallets,
		    tx_count = EXCLUDED.tx_count,
		    swap_count = EXCLUDED.swap_count,
		    swap_volume_sol = EXCLUDED.swap_volume_sol,
		    activity_sample_size = EXCLUDED.activity_sample_size,
		    activity_scale_factor = EXCLUDED.activity_scale_factor,
		    updated_at = NOW()
	`,
		t.Date,
		t.ActiveWallets,
		t.TxCount,
		t.SwapCount,
		t.SwapVolumeSOL,
		t.SampleSize,
		t.ScaleFactor,
	)
	if err != nil {
		return fmt.Errorf("upsert activity totals: %w", err)
	}
	return nil
}

// Get returns the row for date. Returns ErrNotFound if not exists.
func (s *SnapshotStore) Get(ctx context.Context, date string) (*domain.DailySnapshot, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM daily_snapshots WHERE date = $1::date`, date)
	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns up to n rows, newest first.
func (s *SnapshotStore) Latest(ctx context.Context, n int) ([]domain.DailySnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		ORDER BY date DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Since returns rows with date >= from, ordered by date ASC.
func (s *SnapshotStore) Since(ctx context.Context, from string) ([]domain.DailySnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		WHERE date >= $1::date
		ORDER BY date ASC
	`, from)
	if err != nil {
		return nil, fmt.Errorf("snapshots since: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshot(row pgx.Row) (*domain.DailySnapshot, error) {
	var d domain.DailySnapshot
	err := row.Scan(
		&d.Date,
		&d.HolderCount,
		&d.TotalSOLHeld,
		&d.TotalValueUSD,
		&d.SOLPrice,
		&d.TokenPrice,
		&d.TokenMarketCap,
		&d.TokenStakedPct,
		&d.ActiveWallets,
		&d.TxCount,
		&d.SwapCount,
		&d.SwapVolumeSOL,
		&d.ActivitySampleSize,
		&d.ActivityScaleFactor,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanSnapshots(rows pgx.Rows) ([]domain.DailySnapshot, error) {
	var out []domain.DailySnapshot
	for rows.Next() {
		d, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

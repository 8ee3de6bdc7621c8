package storage

import (
	"context"

	"skr-stats/internal/domain"
)

// WalletStore provides access to the wallets registry.
// Wallets are never deleted, only marked inactive.
type WalletStore interface {
	// Upsert inserts or updates wallets by address in one transaction and
	// returns how many addresses were new. New rows get firstSeen. When
	// deactivateMissing is true, active wallets absent from ws are marked
	// inactive in the same transaction.
	Upsert(ctx context.Context, ws []domain.WalletMint, firstSeen string, deactivateMissing bool) (int, error)

	// ListActive returns all active wallets ordered by address.
	ListActive(ctx context.Context) ([]domain.Wallet, error)

	// Count returns the number of wallets, or of active wallets only.
	Count(ctx context.Context, activeOnly bool) (int64, error)

	// MarkActive sets last_active = date for addresses in one transaction.
	MarkActive(ctx context.Context, addresses []string, date string) error
}

// SnapshotStore provides access to daily_snapshots storage.
// Exactly one row exists per date; each upsert writes only its own columns.
type SnapshotStore interface {
	// UpsertSnapshotTotals writes the snapshot-stage columns for t.Date.
	UpsertSnapshotTotals(ctx context.Context, t domain.SnapshotTotals) error

	// UpsertActivityTotals writes the activity-stage columns for t.Date.
	UpsertActivityTotals(ctx context.Context, t domain.ActivityTotals) error

	// Get returns the row for date. Returns ErrNotFound if not exists.
	Get(ctx context.Context, date string) (*domain.DailySnapshot, error)

	// Latest returns up to n rows, newest first.
	Latest(ctx context.Context, n int) ([]domain.DailySnapshot, error)

	// Since returns rows with date >= from, ordered by date ASC.
	Since(ctx context.Context, from string) ([]domain.DailySnapshot, error)
}

// HoldingStore provides access to wallet_holdings storage.
type HoldingStore interface {
	// ReplaceForWallets upserts holdings and, for every address in wallets,
	// deletes rows whose mint is not among that wallet's new holdings. Runs in
	// one transaction.
	ReplaceForWallets(ctx context.Context, wallets []string, holdings []domain.WalletHolding) error

	// ByWallet returns a wallet's holdings ordered by mint.
	ByWallet(ctx context.Context, wallet string) ([]domain.WalletHolding, error)

	// SummaryByToken aggregates holdings with positive value by mint, ordered
	// by total value DESC, up to limit rows.
	SummaryByToken(ctx context.Context, limit int) ([]domain.TokenHoldingSummary, error)
}

// ProtocolStore provides access to protocol_interactions storage.
type ProtocolStore interface {
	// UpsertBulk writes rows keyed by (date, program_id) in one transaction.
	UpsertBulk(ctx context.Context, rows []domain.ProtocolInteraction) error

	// LatestDate returns the newest date with rows, at or before onOrBefore
	// when it is non-empty. Returns ErrNotFound if there is none.
	LatestDate(ctx context.Context, onOrBefore string) (string, error)

	// ByDate returns a day's rows ordered by unique_wallets DESC.
	ByDate(ctx context.Context, date string) ([]domain.ProtocolInteraction, error)
}

// TokenMetricStore provides access to token_metrics storage.
type TokenMetricStore interface {
	// Upsert writes the row for m.Date.
	Upsert(ctx context.Context, m domain.TokenMetric) error

	// Latest returns the newest row. Returns ErrNotFound if empty.
	Latest(ctx context.Context) (*domain.TokenMetric, error)

	// Since returns rows with date >= from, ordered by date ASC.
	Since(ctx context.Context, from string) ([]domain.TokenMetric, error)
}

// RunStore provides access to the append-only pipeline_runs log.
type RunStore interface {
	// Start appends a running row and returns its id.
	Start(ctx context.Context, stage string, startedAt int64) (int64, error)

	// Finish moves a running row to status. Returns ErrNotFound if the row
	// does not exist or is no longer running.
	Finish(ctx context.Context, id int64, status domain.RunStatus, finishedAt, records int64, notes string) error

	// Recent returns up to limit rows newest first, skipping excludeID.
	Recent(ctx context.Context, limit int, excludeID int64) ([]domain.PipelineRun, error)
}

// CursorStore provides access to cursor_state storage.
// This enables resumption after restarts without reprocessing.
type CursorStore interface {
	// Get returns the cursor for key. Returns ErrNotFound if not set.
	Get(ctx context.Context, key string) (*domain.CursorState, error)

	// Set upserts the cursor for key.
	Set(ctx context.Context, key, value string) error
}

// ActivitySampleSink receives raw activity observations for audit.
type ActivitySampleSink interface {
	InsertBulk(ctx context.Context, samples []domain.ActivitySample) error
}

// Stores bundles every store a stage may need.
type Stores struct {
	Wallets   WalletStore
	Snapshots SnapshotStore
	Holdings  HoldingStore
	Protocols ProtocolStore
	Metrics   TokenMetricStore
	Runs      RunStore
	Cursors   CursorStore
}

package clickhouse

import (
	"context"
	"fmt"
	"time"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// ActivitySampleStore appends raw activity observations to activity_samples.
type ActivitySampleStore struct {
	conn *Conn
}

// NewActivitySampleStore creates a new ActivitySampleStore.
func NewActivitySampleStore(conn *Conn) *ActivitySampleStore {
	return &ActivitySampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ActivitySampleSink = (*ActivitySampleStore)(nil)

// InsertBulk appends samples in one batch. The table is an audit log, so
// repeated scans of a day simply add rows.
func (s *ActivitySampleStore) InsertBulk(ctx context.Context, samples []domain.ActivitySample) error {
	if len(samples) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO activity_samples (
			date, wallet, tx_count, swap_count, volume_sol, programs, scale_factor, scanned_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sm := range samples {
		day, err := domain.ParseDate(sm.Date)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("parse sample date %q: %w", sm.Date, err)
		}
		programs := sm.Programs
		if programs == nil {
			programs = []string{}
		}
		err = batch.Append(
			day, sm.Wallet, uint32(sm.TxCount), uint32(sm.SwapCount),
			sm.VolumeSOL, programs, sm.ScaleFactor, time.UnixMilli(sm.ScannedAt).UTC(),
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByDate returns how many samples were recorded for date.
func (s *ActivitySampleStore) CountByDate(ctx context.Context, date string) (uint64, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}

	var n uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM activity_samples WHERE date = ?`, day)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

package postgres

import (
	"context"
	"fmt"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Start appends a running row and returns its id.
func (s *RunStore) Start(ctx context.Context, stage string, startedAt int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pipeline_runs (stage, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, stage, string(domain.RunStatusRunning), startedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pipeline run: %w", err)
	}
	return id, nil
}

// Finish moves a running row to status exactly once.
func (s *RunStore) Finish(ctx context.Context, id int64, status domain.RunStatus, finishedAt, records int64, notes string) error {
	if status == domain.RunStatusRunning {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_runs
		SET status = $2, finished_at = $3, records = $4, notes = $5
		WHERE id = $1 AND status = 'running'
	`, id, string(status), finishedAt, records, notes)
	if err != nil {
		return fmt.Errorf("finish pipeline run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Recent returns up to limit rows newest first, skipping excludeID.
func (s *RunStore) Recent(ctx context.Context, limit int, excludeID int64) ([]domain.PipelineRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, stage, status, started_at, finished_at, records, notes
		FROM pipeline_runs
		WHERE id <> $2
		ORDER BY started_at DESC, id DESC
		LIMIT $1
	`, limit, excludeID)
	if err != nil {
		return nil, fmt.Errorf("recent pipeline runs: %w", err)
	}
	defer rows.Close()

	var out []domain.PipelineRun
	for rows.Next() {
		var r domain.PipelineRun
		var status string
		if err := rows.Scan(&r.ID, &r.Stage, &status, &r.StartedAt, &r.FinishedAt, &r.Records, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan pipeline run row: %w", err)
		}
		r.Status = domain.RunStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipeline run rows: %w", err)
	}
	return out, nil
}

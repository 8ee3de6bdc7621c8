package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/observability"
	"skr-stats/internal/storage"
)

// ErrNoWallets is returned by stages that need a populated registry.
var ErrNoWallets = errors.New("no active wallets in registry; run discover first")

// finalizeTimeout bounds the write that closes a run row after the stage
// context has been cancelled.
const finalizeTimeout = 10 * time.Second

// Outcome is what a successful stage reports back to its run row.
type Outcome struct {
	Records int64
	Notes   string
}

// StageFunc runs one stage. runID is the id of the run row tracking it.
type StageFunc func(ctx context.Context, runID int64) (Outcome, error)

// Tracker records every stage execution in the pipeline_runs log.
type Tracker struct {
	runs    storage.RunStore
	metrics *observability.Metrics
	logger  *zap.Logger
	clock   func() time.Time
}

// NewTracker creates a tracker. metrics and logger may be nil.
func NewTracker(runs storage.RunStore, metrics *observability.Metrics, logger *zap.Logger) *Tracker {
	return &Tracker{
		runs:    runs,
		metrics: metrics,
		logger:  logging.OrNop(logger),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic timestamps.
func (t *Tracker) WithClock(clock func() time.Time) *Tracker {
	t.clock = clock
	return t
}

// Run inserts a running row, executes fn and finalizes the row as success or
// error. The stage error is returned unchanged.
func (t *Tracker) Run(ctx context.Context, stage string, fn StageFunc) error {
	started := t.clock()
	id, err := t.runs.Start(ctx, stage, started.UnixMilli())
	if err != nil {
		return fmt.Errorf("start %s run: %w", stage, err)
	}

	log := t.logger.With(zap.String("stage", stage), zap.Int64("run_id", id))
	log.Info("stage started")

	out, runErr := fn(ctx, id)

	finished := t.clock()
	status := domain.RunStatusSuccess
	notes := out.Notes
	records := out.Records
	if runErr != nil {
		status = domain.RunStatusError
		notes = runErr.Error()
		records = 0
	}

	// The row must be closed even when ctx was cancelled mid-stage.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := t.runs.Finish(fctx, id, status, finished.UnixMilli(), records, notes); err != nil {
		log.Error("finalize run", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("finalize %s run: %w", stage, err)
		}
	}

	elapsed := finished.Sub(started)
	t.metrics.RecordPipelineRun(stage, string(status), elapsed, records)

	if runErr != nil {
		log.Error("stage failed", zap.Duration("elapsed", elapsed), zap.Error(runErr))
		return runErr
	}
	log.Info("stage finished",
		zap.Duration("elapsed", elapsed),
		zap.Int64("records", records),
		zap.String("notes", notes),
	)
	return nil
}

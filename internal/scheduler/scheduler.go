// Package scheduler triggers the pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"skr-stats/internal/logging"
)

// Job is one scheduled pipeline pass.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a seconds-field cron spec. Overlapping triggers are
// skipped and panics are recovered.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	logger *zap.Logger
}

// New validates spec and registers job. Each run gets a child of ctx.
func New(ctx context.Context, spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	logger = logging.OrNop(logger)
	cl := cronLogger{logger.Sugar()}

	c := cron.New(
		cron.WithSeconds(),
		// Recover must sit inside SkipIfStillRunning: the skip wrapper
		// releases its token without a defer, so a panic escaping it would
		// skip every later tick.
		cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		cron.WithLogger(cl),
	)
	_, err := c.AddFunc(spec, func() {
		started := time.Now()
		logger.Info("scheduled run started")
		if err := job(ctx); err != nil {
			logger.Error("scheduled run failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
			return
		}
		logger.Info("scheduled run finished", zap.Duration("elapsed", time.Since(started)))
	})
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, spec: spec, logger: logger}, nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.spec))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

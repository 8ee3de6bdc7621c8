// Package activity estimates daily on-chain activity of the wallet population
// from a scanned sample.
package activity

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"skr-stats/internal/batch"
	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/observability"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/solana"
	"skr-stats/internal/storage"
)

// Defaults.
const (
	DefaultSampleSize     = 2000
	DefaultSignatureLimit = 30
)

const window = 24 * time.Hour

// Options configures the activity stage.
type Options struct {
	SampleSize     int
	SignatureLimit int
	Concurrency    int
	Delay          time.Duration

	// Sink receives raw per-wallet observations. Optional.
	Sink storage.ActivitySampleSink

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Stage is the activity scanning stage.
type Stage struct {
	oracle  solana.Oracle
	stores  storage.Stores
	opts    Options
	logger  *zap.Logger
	clock   func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewStage creates an activity stage.
func NewStage(oracle solana.Oracle, stores storage.Stores, opts Options) *Stage {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.SignatureLimit <= 0 {
		opts.SignatureLimit = DefaultSignatureLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Stage{
		oracle:  oracle,
		stores:  stores,
		opts:    opts,
		logger:  logging.OrNop(opts.Logger),
		clock:   func() time.Time { return time.Now().UTC() },
		shuffle: rand.Shuffle,
	}
}

// WithClock sets a custom clock function for deterministic dates and cutoffs.
func (s *Stage) WithClock(clock func() time.Time) *Stage {
	s.clock = clock
	return s
}

// WithRand sets the random source used for the sample fill.
func (s *Stage) WithRand(r *rand.Rand) *Stage {
	s.shuffle = r.Shuffle
	return s
}

// Run scans a sample and writes the extrapolated totals for today.
func (s *Stage) Run(ctx context.Context, _ int64) (pipeline.Outcome, error) {
	now := s.clock()
	today := domain.FormatDate(now)
	cutoff := now.Add(-window).Unix()

	wallets, err := s.stores.Wallets.ListActive(ctx)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("list wallets: %w", err)
	}
	if len(wallets) == 0 {
		return pipeline.Outcome{}, pipeline.ErrNoWallets
	}

	sample := Sample(wallets, s.opts.SampleSize, today, s.shuffle)
	s.logger.Info("activity sample built",
		zap.Int("registry", len(wallets)),
		zap.Int("sample", len(sample)),
	)

	results := batch.Process(ctx, sample, batch.Options{
		ChunkSize: s.opts.Concurrency,
		Delay:     s.opts.Delay,
		Name:      "activity",
		Logger:    s.logger,
	}, func(ctx context.Context, wallet string) (walletScan, error) {
		return scanWallet(ctx, s.oracle, wallet, s.opts.SignatureLimit, cutoff)
	})
	if err := ctx.Err(); err != nil {
		return pipeline.Outcome{}, err
	}

	tally := NewTally()
	var active []string
	scans := make([]walletScan, 0, len(results))
	failed, undecoded := 0, 0
	for i, r := range results {
		s.opts.Metrics.RecordBatchItem(domain.StageActivity, r.Err)
		if r.Err != nil {
			failed++
			s.logger.Warn("wallet scan failed", zap.String("wallet", sample[i]), zap.Error(r.Err))
			continue
		}
		if r.Value.DecodeErr != nil {
			undecoded++
			s.logger.Warn("wallet transactions not classified", zap.String("wallet", sample[i]), zap.Error(r.Value.DecodeErr))
		}
		tally.add(r.Value)
		scans = append(scans, r.Value)
		if r.Value.active() {
			active = append(active, r.Value.Wallet)
		}
	}

	population := int64(len(wallets))
	totals, protocols := tally.Extrapolate(today, population, int64(len(sample)))

	if err := s.stores.Wallets.MarkActive(ctx, active, today); err != nil {
		return pipeline.Outcome{}, fmt.Errorf("mark active: %w", err)
	}
	if err := s.stores.Snapshots.UpsertActivityTotals(ctx, totals); err != nil {
		return pipeline.Outcome{}, fmt.Errorf("write activity totals: %w", err)
	}
	if err := s.stores.Protocols.UpsertBulk(ctx, protocols); err != nil {
		return pipeline.Outcome{}, fmt.Errorf("write protocol interactions: %w", err)
	}
	s.writeSamples(ctx, today, now, scans, totals.ScaleFactor)

	s.opts.Metrics.SetActivityScaleFactor(totals.ScaleFactor)
	s.logger.Info("activity extrapolated",
		zap.String("date", today),
		zap.Int64("active_raw", tally.ActiveWallets),
		zap.Int64("active_est", totals.ActiveWallets),
		zap.Int64("tx_est", totals.TxCount),
		zap.Float64("scale_factor", totals.ScaleFactor),
		zap.Int("protocols", len(protocols)),
	)

	return pipeline.Outcome{
		Records: tally.TxCount,
		Notes: fmt.Sprintf("sample=%d failed=%d active=%d scale=%.4f protocols=%d undecoded=%d",
			len(sample), failed, tally.ActiveWallets, totals.ScaleFactor, len(protocols), undecoded),
	}, nil
}

// writeSamples appends raw observations to the audit sink. A sink failure
// does not fail the stage.
func (s *Stage) writeSamples(ctx context.Context, date string, now time.Time, scans []walletScan, factor float64) {
	if s.opts.Sink == nil || len(scans) == 0 {
		return
	}
	samples := make([]domain.ActivitySample, len(scans))
	for i, w := range scans {
		samples[i] = domain.ActivitySample{
			Date:        date,
			Wallet:      w.Wallet,
			TxCount:     w.TxCount,
			SwapCount:   w.SwapCount,
			VolumeSOL:   w.VolumeSOL,
			Programs:    w.programIDs(),
			ScaleFactor: factor,
			ScannedAt:   now.UnixMilli(),
		}
	}
	if err := s.opts.Sink.InsertBulk(ctx, samples); err != nil {
		s.logger.Warn("activity samples not archived", zap.Int("samples", len(samples)), zap.Error(err))
	}
}

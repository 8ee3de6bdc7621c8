package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/observability"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/solana"
	"skr-stats/internal/storage"
)

// ChainOptions configures the default strategy chain.
type ChainOptions struct {
	GroupAddress   string
	MintAuthority  string
	TokenProgram   string
	PageCap        int
	ProgramPageCap int
	Logger         *zap.Logger
}

// DefaultChain returns the strategies in priority order: the two DAS group
// indexes, the token program scan and the resumable authority scan.
func DefaultChain(oracle solana.Oracle, cursors storage.CursorStore, opts ChainOptions) []Strategy {
	return []Strategy{
		NewSearchAssetsStrategy(oracle, opts.GroupAddress, opts.PageCap, opts.Logger),
		NewAssetsByGroupStrategy(oracle, opts.GroupAddress, opts.PageCap, opts.Logger),
		NewProgramAccountStrategy(oracle, oracle, opts.TokenProgram, opts.MintAuthority, opts.ProgramPageCap, opts.Logger),
		NewAuthorityScanStrategy(oracle, cursors, opts.MintAuthority, opts.PageCap, opts.Logger),
	}
}

// Stage runs the strategy chain and writes the winner into the registry.
type Stage struct {
	strategies []Strategy
	wallets    storage.WalletStore
	cursors    storage.CursorStore
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      func() time.Time
}

// NewStage creates a discovery stage. metrics and logger may be nil.
func NewStage(strategies []Strategy, wallets storage.WalletStore, cursors storage.CursorStore, metrics *observability.Metrics, logger *zap.Logger) *Stage {
	return &Stage{
		strategies: strategies,
		wallets:    wallets,
		cursors:    cursors,
		metrics:    metrics,
		logger:     logging.OrNop(logger),
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic first_seen dates.
func (s *Stage) WithClock(clock func() time.Time) *Stage {
	s.clock = clock
	return s
}

// Run tries each strategy in order and upserts the first usable result.
func (s *Stage) Run(ctx context.Context, _ int64) (pipeline.Outcome, error) {
	var errs []error
	for _, st := range s.strategies {
		log := s.logger.With(zap.String("strategy", st.Name()))

		res, err := st.Discover(ctx)
		if err == nil && len(res.Wallets) == 0 && !res.Incremental {
			err = errNoWallets
		}
		if err != nil {
			if ctx.Err() != nil {
				return pipeline.Outcome{}, ctx.Err()
			}
			log.Warn("strategy failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", st.Name(), err))
			continue
		}

		return s.commit(ctx, st.Name(), res)
	}
	return pipeline.Outcome{}, fmt.Errorf("%w: %w", ErrAllStrategiesFailed, errors.Join(errs...))
}

func (s *Stage) commit(ctx context.Context, strategy string, res *Result) (pipeline.Outcome, error) {
	today := domain.FormatDate(s.clock())
	inserted, err := s.wallets.Upsert(ctx, res.Wallets, today, res.Complete)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("upsert wallets: %w", err)
	}

	if res.Cursor != nil {
		if err := s.cursors.Set(ctx, res.Cursor.Key, res.Cursor.Value); err != nil {
			return pipeline.Outcome{}, fmt.Errorf("store cursor: %w", err)
		}
	}

	active, err := s.wallets.Count(ctx, true)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("count wallets: %w", err)
	}
	s.metrics.SetRegistrySize(active)

	s.logger.Info("registry updated",
		zap.String("strategy", strategy),
		zap.Int("discovered", len(res.Wallets)),
		zap.Int("new", inserted),
		zap.Bool("complete", res.Complete),
		zap.Int64("active", active),
	)
	return pipeline.Outcome{
		Records: int64(len(res.Wallets)),
		Notes: fmt.Sprintf("strategy=%s discovered=%d new=%d complete=%t active=%d",
			strategy, len(res.Wallets), inserted, res.Complete, active),
	}, nil
}

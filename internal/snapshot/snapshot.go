// Package snapshot records the daily balance, holdings and token economics
// of the wallet population.
package snapshot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"skr-stats/internal/batch"
	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/observability"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/pricing"
	"skr-stats/internal/solana"
	"skr-stats/internal/storage"
)

// MarketSource returns market data for a coin.
type MarketSource interface {
	Market(ctx context.Context, coinID string) (*pricing.Market, error)
}

// Options configures the snapshot stage.
type Options struct {
	BatchSize          int // addresses per getMultipleAccounts call
	Concurrency        int
	Delay              time.Duration
	HoldingsSampleSize int // 0 scans every wallet

	TokenMint      string
	WrappedSOLMint string
	StakingVault   string // empty skips staking
	MarketCoinID   string

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Stage is the daily snapshot stage.
type Stage struct {
	oracle  solana.Oracle
	prices  pricing.Source
	market  MarketSource
	stores  storage.Stores
	opts    Options
	logger  *zap.Logger
	clock   func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewStage creates a snapshot stage. market may be nil.
func NewStage(oracle solana.Oracle, prices pricing.Source, market MarketSource, stores storage.Stores, opts Options) *Stage {
	if opts.BatchSize <= 0 || opts.BatchSize > solana.MaxMultipleAccounts {
		opts.BatchSize = solana.MaxMultipleAccounts
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Stage{
		oracle:  oracle,
		prices:  prices,
		market:  market,
		stores:  stores,
		opts:    opts,
		logger:  logging.OrNop(opts.Logger),
		clock:   func() time.Time { return time.Now().UTC() },
		shuffle: rand.Shuffle,
	}
}

// WithClock sets a custom clock function for deterministic dates.
func (s *Stage) WithClock(clock func() time.Time) *Stage {
	s.clock = clock
	return s
}

// WithRand sets the random source used for holdings sampling.
func (s *Stage) WithRand(r *rand.Rand) *Stage {
	s.shuffle = r.Shuffle
	return s
}

func (s *Stage) batchOptions(name string) batch.Options {
	return batch.Options{
		ChunkSize: s.opts.Concurrency,
		Delay:     s.opts.Delay,
		Name:      name,
		Logger:    s.logger,
	}
}

// Run executes one snapshot for today.
func (s *Stage) Run(ctx context.Context, _ int64) (pipeline.Outcome, error) {
	today := domain.FormatDate(s.clock())

	wallets, err := s.stores.Wallets.ListActive(ctx)
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("list wallets: %w", err)
	}
	if len(wallets) == 0 {
		return pipeline.Outcome{}, pipeline.ErrNoWallets
	}
	addresses := make([]string, len(wallets))
	for i, w := range wallets {
		addresses[i] = w.Address
	}

	solHeld, solCovered := s.solBalances(ctx, addresses)
	if err := ctx.Err(); err != nil {
		return pipeline.Outcome{}, err
	}

	sample := s.sample(addresses)
	factor := float64(len(addresses)) / float64(len(sample))

	fetched := s.fetchHoldings(ctx, sample)
	if err := ctx.Err(); err != nil {
		return pipeline.Outcome{}, err
	}

	meta := s.resolveMetadata(ctx, fetched.mints())

	priceMints := append(fetched.mints(), s.opts.WrappedSOLMint, s.opts.TokenMint)
	prices, err := s.prices.Prices(ctx, priceMints)
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.Outcome{}, ctx.Err()
		}
		s.logger.Warn("price lookup incomplete", zap.Int("priced", len(prices)), zap.Error(err))
	}
	solPrice := prices[s.opts.WrappedSOLMint]
	tokenPrice := prices[s.opts.TokenMint]

	holdings, tokenValue := valueHoldings(fetched, meta, prices)
	extrapolated := tokenValue.Mul(decimal.NewFromFloat(factor))
	totalValue := solHeld.Mul(decimal.NewFromFloat(solPrice)).Add(extrapolated)

	metric := s.tokenMetric(ctx, today, tokenPrice, fetched.holdersOf(s.opts.TokenMint), factor)

	if err := s.stores.Holdings.ReplaceForWallets(ctx, fetched.ok, holdings); err != nil {
		return pipeline.Outcome{}, fmt.Errorf("write holdings: %w", err)
	}
	err = s.stores.Snapshots.UpsertSnapshotTotals(ctx, domain.SnapshotTotals{
		Date:           today,
		HolderCount:    int64(len(addresses)),
		TotalSOLHeld:   solHeld.InexactFloat64(),
		TotalValueUSD:  totalValue.InexactFloat64(),
		SOLPrice:       solPrice,
		TokenPrice:     metric.Price,
		TokenMarketCap: metric.MarketCap,
		TokenStakedPct: metric.StakedPct,
	})
	if err != nil {
		return pipeline.Outcome{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := s.stores.Metrics.Upsert(ctx, metric); err != nil {
		return pipeline.Outcome{}, fmt.Errorf("write token metric: %w", err)
	}

	s.opts.Metrics.SetRegistrySize(int64(len(addresses)))
	s.logger.Info("snapshot written",
		zap.String("date", today),
		zap.Int("wallets", len(addresses)),
		zap.Int("sol_covered", solCovered),
		zap.String("sol_held", solHeld.StringFixed(2)),
		zap.String("value_usd", totalValue.StringFixed(2)),
		zap.Int("sampled", len(sample)),
		zap.Int("holdings", len(holdings)),
	)

	return pipeline.Outcome{
		Records: int64(len(holdings)),
		Notes: fmt.Sprintf("wallets=%d sol_covered=%d sampled=%d fetched=%d scale=%.4f holdings=%d",
			len(addresses), solCovered, len(sample), len(fetched.ok), factor, len(holdings)),
	}, nil
}

// sample returns the wallets whose holdings are scanned this run.
func (s *Stage) sample(addresses []string) []string {
	n := s.opts.HoldingsSampleSize
	if n <= 0 || len(addresses) <= n {
		return addresses
	}
	shuffled := append([]string(nil), addresses...)
	s.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

// solBalances sums native balances of every wallet. Failed batches are
// skipped; covered is the number of wallets actually read.
func (s *Stage) solBalances(ctx context.Context, addresses []string) (decimal.Decimal, int) {
	chunks := batch.Chunk(addresses, s.opts.BatchSize)
	results := batch.Process(ctx, chunks, s.batchOptions("sol-balances"),
		func(ctx context.Context, chunk []string) (uint64, error) {
			accounts, err := s.oracle.GetMultipleAccounts(ctx, chunk)
			if err != nil {
				return 0, err
			}
			var lamports uint64
			for _, acct := range accounts {
				if acct != nil {
					lamports += acct.Lamports
				}
			}
			return lamports, nil
		})

	total := decimal.Zero
	covered := 0
	for i, r := range results {
		s.opts.Metrics.RecordBatchItem(domain.StageSnapshot, r.Err)
		if r.Err != nil {
			s.logger.Warn("balance batch skipped", zap.Int("wallets", len(chunks[i])), zap.Error(r.Err))
			continue
		}
		total = total.Add(decimal.NewFromUint64(r.Value))
		covered += len(chunks[i])
	}
	return total.Shift(-9), covered
}

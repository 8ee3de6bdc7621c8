// Package aggregate builds the dashboard document from the store and
// publishes it atomically.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"skr-stats/internal/catalog"
	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/storage"
)

// Document limits.
const (
	DefaultHistoryDays = 90
	topHoldings        = 20
	topDapps           = 15
	healthRuns         = 10
	weekDays           = 7
)

// Options configures the aggregator.
type Options struct {
	HistoryDays int
	OutputPath  string
	Logger      *zap.Logger
}

// Stage builds and writes the dashboard document. It never calls out to the
// network.
type Stage struct {
	stores storage.Stores
	opts   Options
	logger *zap.Logger
	clock  func() time.Time
}

// NewStage creates an aggregator stage.
func NewStage(stores storage.Stores, opts Options) *Stage {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = DefaultHistoryDays
	}
	return &Stage{
		stores: stores,
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (s *Stage) WithClock(clock func() time.Time) *Stage {
	s.clock = clock
	return s
}

// Run builds the document and writes it to the configured output.
func (s *Stage) Run(ctx context.Context, runID int64) (pipeline.Outcome, error) {
	doc, err := s.Build(ctx, runID)
	if err != nil {
		return pipeline.Outcome{}, err
	}
	if err := WriteDocument(s.opts.OutputPath, doc); err != nil {
		return pipeline.Outcome{}, err
	}

	s.logger.Info("dashboard written",
		zap.String("path", s.opts.OutputPath),
		zap.Int64("devices", doc.Overview.TotalDevices),
		zap.Int64("active_24h", doc.Overview.ActiveWallets24h),
		zap.Float64("value_usd", doc.Overview.TotalValueUSD),
		zap.Int("days", len(doc.DailyActivity)),
		zap.Int("dapps", len(doc.TopDapps)),
		zap.Int("tokens", len(doc.HoldingsDistribution)),
	)
	return pipeline.Outcome{
		Records: int64(len(doc.DailyActivity)),
		Notes: fmt.Sprintf("days=%d tokens=%d dapps=%d output=%s",
			len(doc.DailyActivity), len(doc.HoldingsDistribution), len(doc.TopDapps), s.opts.OutputPath),
	}, nil
}

// Build reads the store and assembles the document. excludeRunID is left out
// of the health panel.
func (s *Stage) Build(ctx context.Context, excludeRunID int64) (*Document, error) {
	now := s.clock()
	today := domain.FormatDate(now)
	from, err := domain.AddDays(today, -s.opts.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("history window: %w", err)
	}

	latest, err := s.stores.Snapshots.Latest(ctx, 2)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshots: %w", err)
	}
	history, err := s.stores.Snapshots.Since(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("load snapshot history: %w", err)
	}
	devices, err := s.stores.Wallets.Count(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("count wallets: %w", err)
	}

	prices := newSOLPrices(history, latest)

	doc := &Document{
		GeneratedAt:   now.Format(time.RFC3339),
		Version:       DocumentVersion,
		Overview:      overview(latest, devices, today),
		DailyActivity: dailyActivity(history, prices),
	}

	if doc.HoldingsDistribution, err = s.holdings(ctx); err != nil {
		return nil, err
	}
	if doc.TopDapps, doc.CategoryBreakdown, err = s.dapps(ctx, prices); err != nil {
		return nil, err
	}
	if doc.TokenEconomy, err = s.tokenEconomy(ctx, from); err != nil {
		return nil, err
	}
	if doc.PipelineHealth, err = s.health(ctx, excludeRunID); err != nil {
		return nil, err
	}
	return doc, nil
}

func overview(latest []domain.DailySnapshot, devices int64, today string) Overview {
	o := Overview{TotalDevices: devices, LastUpdated: today}
	if len(latest) == 0 {
		return o
	}
	cur := latest[0]
	o.ActiveWallets24h = cur.ActiveWallets
	o.TotalTransactions = cur.TxCount
	o.TotalValueUSD = cur.TotalValueUSD
	o.TotalSOLHeld = cur.TotalSOLHeld
	o.SOLPrice = cur.SOLPrice
	o.TokenPrice = cur.TokenPrice
	o.TokenMarketCap = cur.TokenMarketCap
	o.TokenStakedPct = cur.TokenStakedPct
	o.ActivitySampleSize = cur.ActivitySampleSize
	o.ActivityScaleFactor = cur.ActivityScaleFactor
	if cur.UpdatedAt > 0 {
		o.LastUpdated = msToRFC3339(cur.UpdatedAt)
	}

	var prevActive, prevTx, prevValue *float64
	if len(latest) > 1 {
		prev := latest[1]
		a, t, v := float64(prev.ActiveWallets), float64(prev.TxCount), prev.TotalValueUSD
		prevActive, prevTx, prevValue = &a, &t, &v
	}
	o.ActiveWalletsChange = pctChange(float64(cur.ActiveWallets), prevActive)
	o.TxChange = pctChange(float64(cur.TxCount), prevTx)
	o.ValueChange = pctChange(cur.TotalValueUSD, prevValue)
	return o
}

// solPrices converts the SOL volume proxy to USD: the same day's snapshot
// price when recorded, else the latest known price.
type solPrices struct {
	byDate map[string]float64
	latest float64
}

func newSOLPrices(sets ...[]domain.DailySnapshot) solPrices {
	p := solPrices{byDate: make(map[string]float64)}
	newest := ""
	for _, rows := range sets {
		for _, r := range rows {
			if r.SOLPrice <= 0 {
				continue
			}
			p.byDate[r.Date] = r.SOLPrice
			if r.Date > newest {
				newest = r.Date
				p.latest = r.SOLPrice
			}
		}
	}
	return p
}

func (p solPrices) on(date string) float64 {
	if v, ok := p.byDate[date]; ok {
		return v
	}
	return p.latest
}

func dailyActivity(history []domain.DailySnapshot, prices solPrices) []DailyActivity {
	out := make([]DailyActivity, len(history))
	for i, r := range history {
		out[i] = DailyActivity{
			Date:          r.Date,
			ActiveWallets: r.ActiveWallets,
			Transactions:  r.TxCount,
			SwapCount:     r.SwapCount,
			SwapVolumeUSD: r.SwapVolumeSOL * prices.on(r.Date),
			TotalValueUSD: r.TotalValueUSD,
			TokenPrice:    r.TokenPrice,
			SOLPrice:      r.SOLPrice,
		}
	}
	return out
}

func (s *Stage) holdings(ctx context.Context) ([]HoldingShare, error) {
	rows, err := s.stores.Holdings.SummaryByToken(ctx, topHoldings)
	if err != nil {
		return nil, fmt.Errorf("summarize holdings: %w", err)
	}
	var total float64
	for _, r := range rows {
		total += r.TotalValue
	}

	out := make([]HoldingShare, len(rows))
	for i, r := range rows {
		name := r.Symbol
		if name == "" {
			if t, ok := catalog.LookupToken(r.Mint); ok {
				name = t.Symbol
			} else {
				name = fmt.Sprintf("Token %d", i+1)
			}
		}
		out[i] = HoldingShare{
			Name:       name,
			Mint:       r.Mint,
			Percentage: share(r.TotalValue, total),
			ValueUSD:   r.TotalValue,
			Amount:     r.TotalAmount,
			Holders:    r.Holders,
			Color:      catalog.Color(name, i),
		}
	}
	return out, nil
}

func (s *Stage) dapps(ctx context.Context, prices solPrices) ([]Dapp, []CategoryShare, error) {
	latestDate, err := s.stores.Protocols.LatestDate(ctx, "")
	if errors.Is(err, storage.ErrNotFound) {
		return []Dapp{}, []CategoryShare{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("latest protocol date: %w", err)
	}
	rows, err := s.stores.Protocols.ByDate(ctx, latestDate)
	if err != nil {
		return nil, nil, fmt.Errorf("load protocols: %w", err)
	}

	weekAgo, err := s.weekAgoUsers(ctx, latestDate)
	if err != nil {
		return nil, nil, err
	}

	top := rows
	if len(top) > topDapps {
		top = top[:topDapps]
	}
	price := prices.on(latestDate)
	dapps := make([]Dapp, len(top))
	for i, r := range top {
		var prev *int64
		if v, ok := weekAgo[r.ProgramID]; ok {
			prev = &v
		}
		dapps[i] = Dapp{
			ProgramID: r.ProgramID,
			Name:      r.Name,
			Category:  r.Category,
			Users:     r.UniqueWallets,
			TxCount:   r.TxCount,
			VolumeUSD: r.VolumeSOL * price,
			Change7d:  change7d(r.UniqueWallets, prev),
		}
	}
	return dapps, categories(rows), nil
}

// weekAgoUsers returns unique wallets per program on the newest date at
// least a week before latest.
func (s *Stage) weekAgoUsers(ctx context.Context, latest string) (map[string]int64, error) {
	cutoff, err := domain.AddDays(latest, -weekDays)
	if err != nil {
		return nil, fmt.Errorf("week-ago cutoff: %w", err)
	}
	date, err := s.stores.Protocols.LatestDate(ctx, cutoff)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("week-ago protocol date: %w", err)
	}
	rows, err := s.stores.Protocols.ByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load week-ago protocols: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ProgramID] = r.UniqueWallets
	}
	return out, nil
}

func categories(rows []domain.ProtocolInteraction) []CategoryShare {
	byCat := make(map[string]*CategoryShare)
	var total int64
	for _, r := range rows {
		c, ok := byCat[r.Category]
		if !ok {
			c = &CategoryShare{Category: r.Category}
			byCat[r.Category] = c
		}
		c.Wallets += r.UniqueWallets
		c.TxCount += r.TxCount
		total += r.UniqueWallets
	}

	out := make([]CategoryShare, 0, len(byCat))
	for _, c := range byCat {
		c.Percentage = share(float64(c.Wallets), float64(total))
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wallets != out[j].Wallets {
			return out[i].Wallets > out[j].Wallets
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (s *Stage) tokenEconomy(ctx context.Context, from string) (TokenEconomy, error) {
	eco := TokenEconomy{History: []TokenMetric{}}

	cur, err := s.stores.Metrics.Latest(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return eco, fmt.Errorf("load token metric: %w", err)
	default:
		m := tokenMetric(*cur)
		eco.Current = &m
	}

	rows, err := s.stores.Metrics.Since(ctx, from)
	if err != nil {
		return eco, fmt.Errorf("load token history: %w", err)
	}
	for _, r := range rows {
		eco.History = append(eco.History, tokenMetric(r))
	}
	return eco, nil
}

func tokenMetric(m domain.TokenMetric) TokenMetric {
	return TokenMetric{
		Date:              m.Date,
		Price:             m.Price,
		MarketCap:         m.MarketCap,
		Volume24h:         m.Volume24h,
		CirculatingSupply: m.CirculatingSupply,
		TotalStaked:       m.TotalStaked,
		StakedPct:         m.StakedPct,
		HolderCount:       m.HolderCount,
	}
}

func (s *Stage) health(ctx context.Context, excludeRunID int64) ([]RunSummary, error) {
	runs, err := s.stores.Runs.Recent(ctx, healthRuns, excludeRunID)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	out := make([]RunSummary, len(runs))
	for i, r := range runs {
		out[i] = RunSummary{
			ID:        r.ID,
			Stage:     r.Stage,
			Status:    string(r.Status),
			StartedAt: msToRFC3339(r.StartedAt),
			Records:   r.Records,
			Notes:     r.Notes,
		}
		if r.FinishedAt != nil {
			f := msToRFC3339(*r.FinishedAt)
			out[i].FinishedAt = &f
		}
	}
	return out, nil
}

func msToRFC3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

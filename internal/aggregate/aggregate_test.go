package aggregate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
	"skr-stats/internal/storage/memory"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
}

func seedStores(t *testing.T) storage.Stores {
	t.Helper()
	ctx := context.Background()
	stores := memory.NewStores()

	_, err := stores.Wallets.Upsert(ctx, []domain.WalletMint{
		{Wallet: "W1", Mint: "M1"}, {Wallet: "W2", Mint: "M2"}, {Wallet: "W3", Mint: "M3"},
	}, "2025-05-01", false)
	require.NoError(t, err)

	snaps := []domain.SnapshotTotals{
		{Date: "2025-05-30", TotalValueUSD: 800, SOLPrice: 100},
		{Date: "2025-05-31", TotalValueUSD: 1000, SOLPrice: 0},
		{Date: "2025-06-01", TotalValueUSD: 900, SOLPrice: 150, TokenPrice: 0.02, TotalSOLHeld: 6},
	}
	acts := []domain.ActivityTotals{
		{Date: "2025-05-30", ActiveWallets: 50, TxCount: 200, SwapVolumeSOL: 1},
		{Date: "2025-05-31", ActiveWallets: 100, TxCount: 400, SwapVolumeSOL: 4},
		{Date: "2025-06-01", ActiveWallets: 112, TxCount: 300, SwapCount: 7, SwapVolumeSOL: 2, SampleSize: 100, ScaleFactor: 10},
	}
	for i := range snaps {
		require.NoError(t, stores.Snapshots.UpsertSnapshotTotals(ctx, snaps[i]))
		require.NoError(t, stores.Snapshots.UpsertActivityTotals(ctx, acts[i]))
	}
	require.NoError(t, stores.Snapshots.UpsertSnapshotTotals(ctx, domain.SnapshotTotals{Date: "2024-12-01", TotalValueUSD: 1}))

	require.NoError(t, stores.Holdings.ReplaceForWallets(ctx, []string{"W1", "W2"}, []domain.WalletHolding{
		{Wallet: "W1", Mint: "MintA", Symbol: "AAA", AmountRaw: "1", Decimals: 0, Amount: 1, ValueUSD: 420},
		{Wallet: "W1", Mint: "MintB", Symbol: "", AmountRaw: "1", Decimals: 0, Amount: 1, ValueUSD: 330},
		{Wallet: "W2", Mint: "MintB", Symbol: "", AmountRaw: "1", Decimals: 0, Amount: 1, ValueUSD: 250},
		{Wallet: "W2", Mint: "Dust", Symbol: "DST", AmountRaw: "5", Decimals: -1},
	}))

	require.NoError(t, stores.Protocols.UpsertBulk(ctx, []domain.ProtocolInteraction{
		{Date: "2025-05-20", ProgramID: "P1", Name: "Old", Category: "DEX", UniqueWallets: 999},
		{Date: "2025-05-24", ProgramID: "P1", Name: "Alpha", Category: "DEX", UniqueWallets: 50},
		{Date: "2025-05-28", ProgramID: "P1", Name: "Alpha", Category: "DEX", UniqueWallets: 70},
		{Date: "2025-06-01", ProgramID: "P1", Name: "Alpha", Category: "DEX", UniqueWallets: 60, TxCount: 90, VolumeSOL: 2},
		{Date: "2025-06-01", ProgramID: "P2", Name: "Beta", Category: "DEX", UniqueWallets: 30, TxCount: 30},
		{Date: "2025-06-01", ProgramID: "P3", Name: "Gamma", Category: "NFT", UniqueWallets: 10, TxCount: 5},
	}))

	require.NoError(t, stores.Metrics.Upsert(ctx, domain.TokenMetric{Date: "2025-05-31", Price: 0.01}))
	require.NoError(t, stores.Metrics.Upsert(ctx, domain.TokenMetric{Date: "2025-06-01", Price: 0.02, StakedPct: 25}))

	for _, stage := range []string{domain.StageDiscover, domain.StageSnapshot} {
		id, err := stores.Runs.Start(ctx, stage, fixedNow().Add(-time.Hour).UnixMilli())
		require.NoError(t, err)
		require.NoError(t, stores.Runs.Finish(ctx, id, domain.RunStatusSuccess, fixedNow().UnixMilli(), 3, "ok"))
	}
	return stores
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	stores := seedStores(t)
	selfID, err := stores.Runs.Start(ctx, domain.StageAggregate, fixedNow().UnixMilli())
	require.NoError(t, err)

	doc, err := NewStage(stores, Options{}).WithClock(fixedNow).Build(ctx, selfID)
	require.NoError(t, err)

	assert.Equal(t, DocumentVersion, doc.Version)
	assert.Equal(t, "2025-06-01T03:00:00Z", doc.GeneratedAt)

	o := doc.Overview
	assert.Equal(t, int64(3), o.TotalDevices)
	assert.Equal(t, int64(112), o.ActiveWallets24h)
	require.NotNil(t, o.ActiveWalletsChange)
	assert.Equal(t, "+12.0%", *o.ActiveWalletsChange)
	require.NotNil(t, o.TxChange)
	assert.Equal(t, "-25.0%", *o.TxChange)
	require.NotNil(t, o.ValueChange)
	assert.Equal(t, "-10.0%", *o.ValueChange)
	assert.Equal(t, 10.0, o.ActivityScaleFactor)
	assert.Equal(t, int64(100), o.ActivitySampleSize)

	// The 2024 row falls outside the 90-day window.
	require.Len(t, doc.DailyActivity, 3)
	assert.Equal(t, "2025-05-30", doc.DailyActivity[0].Date)
	assert.Equal(t, 100.0, doc.DailyActivity[0].SwapVolumeUSD)
	// No price that day: latest known price applies.
	assert.Equal(t, 600.0, doc.DailyActivity[1].SwapVolumeUSD)
	assert.Equal(t, 300.0, doc.DailyActivity[2].SwapVolumeUSD)

	h := doc.HoldingsDistribution
	require.Len(t, h, 2)
	assert.Equal(t, "MintB", h[0].Mint)
	assert.Equal(t, "Token 1", h[0].Name)
	assert.Equal(t, 58.0, h[0].Percentage)
	assert.Equal(t, int64(2), h[0].Holders)
	assert.Equal(t, "hsl(0, 60%, 55%)", h[0].Color)
	assert.Equal(t, "AAA", h[1].Name)
	assert.Equal(t, 42.0, h[1].Percentage)
	assert.LessOrEqual(t, h[0].Percentage+h[1].Percentage, 100.0)

	d := doc.TopDapps
	require.Len(t, d, 3)
	assert.Equal(t, "P1", d[0].ProgramID)
	assert.Equal(t, "+20.0%", d[0].Change7d)
	assert.Equal(t, 300.0, d[0].VolumeUSD)
	assert.Equal(t, "new", d[1].Change7d)

	require.Len(t, doc.CategoryBreakdown, 2)
	assert.Equal(t, CategoryShare{Category: "DEX", Wallets: 90, TxCount: 120, Percentage: 90.0}, doc.CategoryBreakdown[0])
	assert.Equal(t, 10.0, doc.CategoryBreakdown[1].Percentage)

	require.NotNil(t, doc.TokenEconomy.Current)
	assert.Equal(t, "2025-06-01", doc.TokenEconomy.Current.Date)
	require.Len(t, doc.TokenEconomy.History, 2)
	assert.Equal(t, "2025-05-31", doc.TokenEconomy.History[0].Date)

	require.Len(t, doc.PipelineHealth, 2)
	for _, r := range doc.PipelineHealth {
		assert.NotEqual(t, selfID, r.ID)
		require.NotNil(t, r.FinishedAt)
	}
}

func TestBuild_EmptyStore(t *testing.T) {
	doc, err := NewStage(memory.NewStores(), Options{}).WithClock(fixedNow).Build(context.Background(), 0)
	require.NoError(t, err)

	assert.Nil(t, doc.Overview.ActiveWalletsChange)
	assert.Equal(t, "2025-06-01", doc.Overview.LastUpdated)
	assert.Nil(t, doc.TokenEconomy.Current)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, []any{}, generic["dailyActivity"])
	assert.Equal(t, []any{}, generic["topDapps"])
	assert.Nil(t, generic["overview"].(map[string]any)["txChange"])
}

func TestRun_WritesBothFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path := filepath.Join(dir, "dashboard.json")
	stores := seedStores(t)

	out, err := NewStage(stores, Options{OutputPath: path}).WithClock(fixedNow).Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Records)

	for _, p := range []string{path, MinifiedPath(path)} {
		raw, err := os.ReadFile(p)
		require.NoError(t, err)
		var doc Document
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.Equal(t, int64(112), doc.Overview.ActiveWallets24h)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestMinifiedPath(t *testing.T) {
	assert.Equal(t, "data/dashboard.min.json", MinifiedPath("data/dashboard.json"))
	assert.Equal(t, "out.min.json", MinifiedPath("out"))
}

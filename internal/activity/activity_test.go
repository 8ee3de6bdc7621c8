package activity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/solana"
	"skr-stats/internal/solana/stub"
	"skr-stats/internal/storage"
	"skr-stats/internal/storage/memory"
)

const marinade = "MarBmsSgKXdrN1egZf5sqe1TMai9K1rChYNDJgjq7aD"

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func sig(name string, age time.Duration) solana.SignatureInfo {
	bt := now.Add(-age).Unix()
	return solana.SignatureInfo{Signature: name, BlockTime: &bt}
}

func seed(t *testing.T, stores storage.Stores, n int) {
	t.Helper()
	ws := make([]domain.WalletMint, n)
	for i := range ws {
		ws[i] = domain.WalletMint{Wallet: fmt.Sprintf("W%d", i), Mint: fmt.Sprintf("SGT%d", i)}
	}
	_, err := stores.Wallets.Upsert(context.Background(), ws, "2025-05-01", false)
	require.NoError(t, err)
}

func TestStage_Run(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	seed(t, stores, 4)
	require.NoError(t, stores.Snapshots.UpsertSnapshotTotals(ctx, domain.SnapshotTotals{
		Date: "2025-06-01", HolderCount: 4, TotalValueUSD: 99,
	}))

	oracle := stub.New()
	oracle.Signatures["W0"] = []solana.SignatureInfo{
		sig("s0", 100*time.Second),
		sig("s1", 200*time.Second),
		sig("s2", 25*time.Hour),
	}
	oracle.Transactions["s0"] = solana.EnhancedTransaction{
		Signature:   "s0",
		Type:        solana.TxTypeSwap,
		Source:      "JUPITER",
		AccountData: []solana.AccountData{{Account: jupiterV6}, {Account: "W0"}},
		NativeTransfers: []solana.NativeTransfer{
			{Amount: 1_000_000_000},
			{Amount: 500_000_000},
			{Amount: 0},
		},
	}
	oracle.Transactions["s1"] = solana.EnhancedTransaction{
		Signature:   "s1",
		Type:        "STAKE_SOL",
		Source:      "MARINADE_FINANCE",
		AccountData: []solana.AccountData{{Account: marinade}},
	}
	oracle.Signatures["W1"] = []solana.SignatureInfo{sig("s3", 10*time.Second)}
	oracle.FailKeys["getSignaturesForAddress:W3"] = stub.ErrInjected

	sink := memory.NewActivitySampleStore()
	stage := NewStage(oracle, stores, Options{Sink: sink}).WithClock(fixedNow)

	out, err := stage.Run(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Records)
	assert.Contains(t, out.Notes, "sample=4 failed=1 active=2 scale=1.0000 protocols=2")

	snap, err := stores.Snapshots.Get(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.ActiveWallets)
	assert.Equal(t, int64(3), snap.TxCount)
	assert.Equal(t, int64(1), snap.SwapCount)
	assert.InDelta(t, 1.5, snap.SwapVolumeSOL, 1e-12)
	assert.Equal(t, int64(4), snap.ActivitySampleSize)
	assert.Equal(t, 1.0, snap.ActivityScaleFactor)
	// Snapshot columns survive.
	assert.Equal(t, int64(4), snap.HolderCount)
	assert.Equal(t, 99.0, snap.TotalValueUSD)

	rows, err := stores.Protocols.ByDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byID := map[string]domain.ProtocolInteraction{}
	for _, r := range rows {
		byID[r.ProgramID] = r
	}
	// Account and source match the same program once per transaction.
	assert.Equal(t, int64(1), byID[jupiterV6].TxCount)
	assert.InDelta(t, 1.5, byID[jupiterV6].VolumeSOL, 1e-12)
	assert.Equal(t, int64(1), byID[marinade].UniqueWallets)
	assert.Equal(t, int64(1), byID[marinade].TxCount)

	wallets, err := stores.Wallets.ListActive(ctx)
	require.NoError(t, err)
	lastActive := map[string]string{}
	for _, w := range wallets {
		if w.LastActive != nil {
			lastActive[w.Address] = *w.LastActive
		}
	}
	assert.Equal(t, map[string]string{"W0": "2025-06-01", "W1": "2025-06-01"}, lastActive)

	samples := sink.All()
	require.Len(t, samples, 3)
	for _, s := range samples {
		assert.Equal(t, 1.0, s.ScaleFactor)
		if s.Wallet == "W0" {
			assert.Equal(t, []string{jupiterV6, marinade}, s.Programs)
			assert.Equal(t, int64(2), s.TxCount)
		}
	}
}

func TestStage_DecodeCap(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	seed(t, stores, 1)

	oracle := stub.New()
	for i := 0; i < 15; i++ {
		oracle.Signatures["W0"] = append(oracle.Signatures["W0"], sig(fmt.Sprintf("s%02d", i), time.Duration(i+1)*time.Minute))
	}

	_, err := NewStage(oracle, stores, Options{}).WithClock(fixedNow).Run(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, oracle.ParsedSignatures(), maxDecodePerWallet)

	snap, err := stores.Snapshots.Get(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(15), snap.TxCount)
}

func TestStage_DecodeFailureKeepsActivity(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	seed(t, stores, 2)

	oracle := stub.New()
	oracle.Signatures["W0"] = []solana.SignatureInfo{sig("a0", time.Minute), sig("a1", time.Hour)}
	oracle.Signatures["W1"] = []solana.SignatureInfo{sig("b0", 2*time.Hour)}
	oracle.Fail["parseTransactions"] = stub.ErrInjected

	out, err := NewStage(oracle, stores, Options{}).WithClock(fixedNow).Run(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Records)
	assert.Contains(t, out.Notes, "failed=0 active=2")
	assert.Contains(t, out.Notes, "undecoded=2")

	snap, err := stores.Snapshots.Get(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.ActiveWallets)
	assert.Equal(t, int64(3), snap.TxCount)
	assert.Zero(t, snap.SwapCount)

	rows, err := stores.Protocols.ByDate(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, rows)

	wallets, err := stores.Wallets.ListActive(ctx)
	require.NoError(t, err)
	for _, w := range wallets {
		require.NotNil(t, w.LastActive, w.Address)
		assert.Equal(t, "2025-06-01", *w.LastActive)
	}
}

func TestStage_Extrapolates(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	seed(t, stores, 10)

	oracle := stub.New()
	for i := 0; i < 10; i++ {
		oracle.Signatures[fmt.Sprintf("W%d", i)] = []solana.SignatureInfo{sig(fmt.Sprintf("s%d", i), time.Minute)}
	}

	_, err := NewStage(oracle, stores, Options{SampleSize: 4}).WithClock(fixedNow).Run(ctx, 1)
	require.NoError(t, err)

	snap, err := stores.Snapshots.Get(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2.5, snap.ActivityScaleFactor)
	assert.Equal(t, int64(10), snap.ActiveWallets)
	assert.Equal(t, int64(10), snap.TxCount)
}

func TestStage_EmptyRegistry(t *testing.T) {
	stores := memory.NewStores()
	_, err := NewStage(stub.New(), stores, Options{}).Run(context.Background(), 1)
	require.ErrorIs(t, err, pipeline.ErrNoWallets)
}

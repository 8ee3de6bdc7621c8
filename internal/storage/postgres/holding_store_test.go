package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
)

func holding(wallet, mint string, value float64) domain.WalletHolding {
	return domain.WalletHolding{
		Wallet:    wallet,
		Mint:      mint,
		Symbol:    mint,
		AmountRaw: "1500000",
		Decimals:  6,
		Amount:    1.5,
		ValueUSD:  value,
	}
}

func TestHoldingStore_PrunesOnlyListedWallets(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHoldingStore(pool)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForWallets(ctx, []string{"W1", "W2"}, []domain.WalletHolding{
		holding("W1", "MintA", 10),
		holding("W1", "MintB", 20),
		holding("W2", "MintA", 30),
	}))

	// W1 sold MintB; W2's fetch failed so it is not listed.
	require.NoError(t, store.ReplaceForWallets(ctx, []string{"W1"}, []domain.WalletHolding{
		holding("W1", "MintA", 11),
	}))

	w1, err := store.ByWallet(ctx, "W1")
	require.NoError(t, err)
	require.Len(t, w1, 1)
	assert.Equal(t, "MintA", w1[0].Mint)
	assert.Equal(t, 11.0, w1[0].ValueUSD)
	assert.Equal(t, "1500000", w1[0].AmountRaw)
	assert.Equal(t, 6, w1[0].Decimals)

	w2, err := store.ByWallet(ctx, "W2")
	require.NoError(t, err)
	require.Len(t, w2, 1)
	assert.Equal(t, 30.0, w2[0].ValueUSD)
}

func TestHoldingStore_EmptyFetchClearsWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHoldingStore(pool)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForWallets(ctx, []string{"W1"}, []domain.WalletHolding{
		holding("W1", "MintA", 10),
	}))
	require.NoError(t, store.ReplaceForWallets(ctx, []string{"W1"}, nil))

	w1, err := store.ByWallet(ctx, "W1")
	require.NoError(t, err)
	assert.Empty(t, w1)
}

func TestHoldingStore_SummaryByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHoldingStore(pool)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForWallets(ctx, []string{"W1", "W2", "W3"}, []domain.WalletHolding{
		holding("W1", "MintA", 100),
		holding("W2", "MintA", 320),
		holding("W2", "MintB", 50),
		holding("W3", "MintC", 0),
	}))

	summary, err := store.SummaryByToken(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "MintA", summary[0].Mint)
	assert.Equal(t, 420.0, summary[0].TotalValue)
	assert.Equal(t, 3.0, summary[0].TotalAmount)
	assert.Equal(t, int64(2), summary[0].Holders)
	assert.Equal(t, "MintB", summary[1].Mint)

	top, err := store.SummaryByToken(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

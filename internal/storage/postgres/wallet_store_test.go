package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
)

func TestWalletStore_UpsertCountsNewRows(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	batch := []domain.WalletMint{
		{Wallet: "WalletA", Mint: "MintA"},
		{Wallet: "WalletB", Mint: "MintB"},
		{Wallet: "WalletA", Mint: "MintA2"},
	}

	n, err := store.Upsert(ctx, batch, "2025-06-01", false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-running with the same input inserts nothing.
	n, err = store.Upsert(ctx, batch, "2025-06-02", false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	wallets, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "WalletA", wallets[0].Address)
	assert.Equal(t, "MintA", wallets[0].Mint)
	assert.Equal(t, "2025-06-01", wallets[0].FirstSeen)
	assert.Nil(t, wallets[0].LastActive)
	assert.True(t, wallets[0].Active)
}

func TestWalletStore_DeactivateMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	_, err := store.Upsert(ctx, []domain.WalletMint{
		{Wallet: "WalletA", Mint: "MintA"},
		{Wallet: "WalletB", Mint: "MintB"},
		{Wallet: "WalletC", Mint: "MintC"},
	}, "2025-06-01", false)
	require.NoError(t, err)

	// Partial result keeps everyone active.
	_, err = store.Upsert(ctx, []domain.WalletMint{{Wallet: "WalletA", Mint: "MintA"}}, "2025-06-02", false)
	require.NoError(t, err)
	active, err := store.Count(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), active)

	// Complete result deactivates the rest.
	_, err = store.Upsert(ctx, []domain.WalletMint{{Wallet: "WalletA", Mint: "MintA"}}, "2025-06-02", true)
	require.NoError(t, err)

	active, err = store.Count(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	total, err := store.Count(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// Rediscovery reactivates without a new row.
	n, err := store.Upsert(ctx, []domain.WalletMint{{Wallet: "WalletB", Mint: "MintB"}}, "2025-06-03", false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	active, err = store.Count(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
}

func TestWalletStore_MarkActive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	_, err := store.Upsert(ctx, []domain.WalletMint{
		{Wallet: "WalletA", Mint: "MintA"},
		{Wallet: "WalletB", Mint: "MintB"},
	}, "2025-06-01", false)
	require.NoError(t, err)

	require.NoError(t, store.MarkActive(ctx, []string{"WalletB"}, "2025-06-05"))
	require.NoError(t, store.MarkActive(ctx, nil, "2025-06-06"))

	wallets, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Nil(t, wallets[0].LastActive)
	require.NotNil(t, wallets[1].LastActive)
	assert.Equal(t, "2025-06-05", *wallets[1].LastActive)
}

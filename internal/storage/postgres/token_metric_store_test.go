package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

func TestTokenMetricStore_UpsertLatestSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetricStore(pool)
	ctx := context.Background()

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Upsert(ctx, domain.TokenMetric{Date: "2025-06-01", Price: 0.01}))
	require.NoError(t, store.Upsert(ctx, domain.TokenMetric{Date: "2025-06-02", Price: 0.02, StakedPct: 12.5, HolderCount: 77}))
	require.NoError(t, store.Upsert(ctx, domain.TokenMetric{Date: "2025-06-02", Price: 0.03, StakedPct: 12.5, HolderCount: 78}))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", latest.Date)
	assert.Equal(t, 0.03, latest.Price)
	assert.Equal(t, int64(78), latest.HolderCount)

	since, err := store.Since(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "2025-06-01", since[0].Date)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
	"skr-stats/internal/storage"
)

func TestProtocolStore_LatestDate(t *testing.T) {
	store := NewProtocolStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertBulk(ctx, []domain.ProtocolInteraction{
		{Date: "2025-06-01", ProgramID: "p1", UniqueWallets: 3},
		{Date: "2025-06-01", ProgramID: "p2", UniqueWallets: 9},
		{Date: "2025-06-09", ProgramID: "p1", UniqueWallets: 4},
	}))

	latest, err := store.LatestDate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09", latest)

	prior, err := store.LatestDate(ctx, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", prior)

	_, err = store.LatestDate(ctx, "2025-05-31")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rows, _ := store.ByDate(ctx, "2025-06-01")
	require.Len(t, rows, 2)
	assert.Equal(t, "p2", rows[0].ProgramID)
}

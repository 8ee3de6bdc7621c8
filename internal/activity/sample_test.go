package activity

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skr-stats/internal/domain"
)

func day(s string) *string { return &s }

func registry(n int) []domain.Wallet {
	out := make([]domain.Wallet, n)
	for i := range out {
		out[i] = domain.Wallet{Address: fmt.Sprintf("W%02d", i), Active: true}
	}
	return out
}

func TestSample_RecentFirst(t *testing.T) {
	ws := registry(10)
	ws[3].LastActive = day("2025-05-31")
	ws[5].LastActive = day("2025-06-01")
	ws[7].LastActive = day("2025-05-28")
	ws[8].LastActive = day("2025-05-30")
	ws[9].LastActive = day("2025-04-01") // outside the window

	r := rand.New(rand.NewPCG(7, 7))
	got := Sample(ws, 5, "2025-06-01", r.Shuffle)

	require.Len(t, got, 5)
	// Budget for recent wallets is 3 of 5.
	assert.Equal(t, []string{"W05", "W03", "W08"}, got[:3])

	seen := map[string]bool{}
	for _, a := range got {
		assert.False(t, seen[a], "duplicate %s", a)
		seen[a] = true
	}
}

func TestSample_SmallRegistry(t *testing.T) {
	ws := registry(4)
	ws = append(ws, ws[0])

	got := Sample(ws, 2000, "2025-06-01", rand.Shuffle)
	assert.ElementsMatch(t, []string{"W00", "W01", "W02", "W03"}, got)
}

func TestSample_Empty(t *testing.T) {
	assert.Empty(t, Sample(nil, 10, "2025-06-01", rand.Shuffle))
	assert.Empty(t, Sample(registry(3), 0, "2025-06-01", rand.Shuffle))
}

package activity

import (
	"sort"

	"skr-stats/internal/domain"
)

const (
	// recentShare is the fraction of the sample reserved for recently active
	// wallets.
	recentShare = 0.6
	recentDays  = 7
)

// Sample picks up to size wallets: first the most recently active (last
// active within recentDays of today, newest first) up to recentShare of the
// budget, then a uniform random fill from the rest. The result has no
// duplicates.
func Sample(wallets []domain.Wallet, size int, today string, shuffle func(n int, swap func(i, j int))) []string {
	if size <= 0 || len(wallets) == 0 {
		return nil
	}
	cutoff, err := domain.AddDays(today, -recentDays)
	if err != nil {
		cutoff = today
	}

	var recent []domain.Wallet
	var rest []string
	seen := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		if _, dup := seen[w.Address]; dup {
			continue
		}
		seen[w.Address] = struct{}{}
		if w.LastActive != nil && *w.LastActive >= cutoff {
			recent = append(recent, w)
			continue
		}
		rest = append(rest, w.Address)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		if *recent[i].LastActive != *recent[j].LastActive {
			return *recent[i].LastActive > *recent[j].LastActive
		}
		return recent[i].Address < recent[j].Address
	})

	recentBudget := int(float64(size) * recentShare)
	if len(recent) > recentBudget {
		// Overflow joins the random pool.
		for _, w := range recent[recentBudget:] {
			rest = append(rest, w.Address)
		}
		recent = recent[:recentBudget]
	}

	out := make([]string, 0, size)
	for _, w := range recent {
		out = append(out, w.Address)
	}

	fill := size - len(out)
	if fill > len(rest) {
		fill = len(rest)
	}
	shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	return append(out, rest[:fill]...)
}

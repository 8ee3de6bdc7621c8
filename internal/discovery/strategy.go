// Package discovery enumerates the wallets holding a genesis token and keeps
// the wallet registry current.
package discovery

import (
	"context"
	"errors"

	"skr-stats/internal/domain"
)

// ErrAllStrategiesFailed is returned when no strategy in the chain produced
// a usable result. The per-strategy errors are joined onto it.
var ErrAllStrategiesFailed = errors.New("all discovery strategies failed")

// errNoWallets marks a strategy that ran but found nothing.
var errNoWallets = errors.New("strategy returned no wallets")

// Result is the output of one strategy.
type Result struct {
	Wallets []domain.WalletMint

	// Complete is true when the strategy enumerated the whole population, so
	// wallets missing from Wallets no longer hold a token.
	Complete bool

	// Incremental is true for strategies that only report what changed since
	// their cursor. An empty incremental result is still a success.
	Incremental bool

	// Cursor, when set, is persisted after the registry upsert succeeds.
	Cursor *domain.CursorState
}

// Strategy is one way of enumerating token holders.
type Strategy interface {
	Name() string
	Discover(ctx context.Context) (*Result, error)
}

package memory

import "skr-stats/internal/storage"

// NewStores returns a fresh set of in-memory stores.
func NewStores() storage.Stores {
	return storage.Stores{
		Wallets:   NewWalletStore(),
		Snapshots: NewSnapshotStore(),
		Holdings:  NewHoldingStore(),
		Protocols: NewProtocolStore(),
		Metrics:   NewTokenMetricStore(),
		Runs:      NewRunStore(),
		Cursors:   NewCursorStore(),
	}
}

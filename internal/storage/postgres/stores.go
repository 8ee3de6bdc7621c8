package postgres

import "skr-stats/internal/storage"

// NewStores wires every PostgreSQL store onto one pool.
func NewStores(pool *Pool) storage.Stores {
	return storage.Stores{
		Wallets:   NewWalletStore(pool),
		Snapshots: NewSnapshotStore(pool),
		Holdings:  NewHoldingStore(pool),
		Protocols: NewProtocolStore(pool),
		Metrics:   NewTokenMetricStore(pool),
		Runs:      NewRunStore(pool),
		Cursors:   NewCursorStore(pool),
	}
}

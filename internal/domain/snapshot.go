package domain

// DailySnapshot is one day's population-wide aggregate.
// Corresponds to daily_snapshots table in PostgreSQL.
//
// Snapshot and activity stages own disjoint column sets; each upsert only
// touches its own set.
type DailySnapshot struct {
	Date string // PRIMARY KEY, YYYY-MM-DD

	// Snapshot stage columns.
	HolderCount    int64
	TotalSOLHeld   float64
	TotalValueUSD  float64
	SOLPrice       float64
	TokenPrice     float64
	TokenMarketCap float64
	TokenStakedPct float64

	// Activity stage columns.
	ActiveWallets       int64
	TxCount             int64
	SwapCount           int64
	SwapVolumeSOL       float64
	ActivitySampleSize  int64
	ActivityScaleFactor float64

	UpdatedAt int64 // Unix ms
}

// SnapshotTotals is the snapshot-stage half of a DailySnapshot.
type SnapshotTotals struct {
	Date           string
	HolderCount    int64
	TotalSOLHeld   float64
	TotalValueUSD  float64
	SOLPrice       float64
	TokenPrice     float64
	TokenMarketCap float64
	TokenStakedPct float64
}

// ActivityTotals is the activity-stage half of a DailySnapshot.
// Counters are already extrapolated to the population.
type ActivityTotals struct {
	Date          string
	ActiveWallets int64
	TxCount       int64
	SwapCount     int64
	SwapVolumeSOL float64
	SampleSize    int64
	ScaleFactor   float64
}

package domain

// ActivitySample is one raw per-wallet observation from an activity scan.
// Appended to the activity_samples ClickHouse table for audit.
type ActivitySample struct {
	Date        string
	Wallet      string
	TxCount     int64
	SwapCount   int64
	VolumeSOL   float64
	Programs    []string
	ScaleFactor float64
	ScannedAt   int64 // Unix ms
}

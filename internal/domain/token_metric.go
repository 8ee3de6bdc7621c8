package domain

// TokenMetric holds one day's economic metrics for the tracked token.
// Corresponds to token_metrics table in PostgreSQL.
type TokenMetric struct {
	Date              string // PRIMARY KEY
	Price             float64
	MarketCap         float64
	Volume24h         float64
	CirculatingSupply float64
	TotalStaked       float64
	StakedPct         float64
	HolderCount       int64
}

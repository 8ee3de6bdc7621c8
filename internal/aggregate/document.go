package aggregate

// DocumentVersion is bumped on incompatible document changes.
const DocumentVersion = 1

// Document is the published dashboard snapshot.
type Document struct {
	GeneratedAt          string          `json:"generatedAt"`
	Version              int             `json:"version"`
	Overview             Overview        `json:"overview"`
	DailyActivity        []DailyActivity `json:"dailyActivity"`
	HoldingsDistribution []HoldingShare  `json:"holdingsDistribution"`
	TopDapps             []Dapp          `json:"topDapps"`
	CategoryBreakdown    []CategoryShare `json:"categoryBreakdown"`
	TokenEconomy         TokenEconomy    `json:"tokenEconomy"`
	PipelineHealth       []RunSummary    `json:"pipelineHealth"`
}

// Overview holds the headline numbers of the latest day. Change fields are
// nil when there is no usable prior value.
type Overview struct {
	TotalDevices        int64   `json:"totalDevices"`
	ActiveWallets24h    int64   `json:"activeWallets24h"`
	ActiveWalletsChange *string `json:"activeWalletsChange"`
	TotalTransactions   int64   `json:"totalTransactions"`
	TxChange            *string `json:"txChange"`
	TotalValueUSD       float64 `json:"totalValueUsd"`
	ValueChange         *string `json:"valueChange"`
	TotalSOLHeld        float64 `json:"totalSolHeld"`
	SOLPrice            float64 `json:"solPrice"`
	TokenPrice          float64 `json:"tokenPrice"`
	TokenMarketCap      float64 `json:"tokenMarketCap"`
	TokenStakedPct      float64 `json:"tokenStakedPct"`
	ActivitySampleSize  int64   `json:"activitySampleSize"`
	ActivityScaleFactor float64 `json:"activityScaleFactor"`
	LastUpdated         string  `json:"lastUpdated"`
}

// DailyActivity is one point of the history chart.
type DailyActivity struct {
	Date          string  `json:"date"`
	ActiveWallets int64   `json:"activeWallets"`
	Transactions  int64   `json:"transactions"`
	SwapCount     int64   `json:"swapCount"`
	SwapVolumeUSD float64 `json:"swapVolumeUsd"`
	TotalValueUSD float64 `json:"totalValueUsd"`
	TokenPrice    float64 `json:"tokenPrice"`
	SOLPrice      float64 `json:"solPrice"`
}

// HoldingShare is one token's share of the aggregated holdings value.
type HoldingShare struct {
	Name       string  `json:"name"`
	Mint       string  `json:"mint"`
	Percentage float64 `json:"percentage"`
	ValueUSD   float64 `json:"valueUsd"`
	Amount     float64 `json:"amount"`
	Holders    int64   `json:"holders"`
	Color      string  `json:"color"`
}

// Dapp is one protocol's latest-day usage.
type Dapp struct {
	ProgramID string  `json:"programId"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Users     int64   `json:"users"`
	TxCount   int64   `json:"txCount"`
	VolumeUSD float64 `json:"volumeUsd"`
	Change7d  string  `json:"change7d"`
}

// CategoryShare is a protocol category's share of latest-day users.
type CategoryShare struct {
	Category   string  `json:"category"`
	Wallets    int64   `json:"wallets"`
	TxCount    int64   `json:"txCount"`
	Percentage float64 `json:"percentage"`
}

// TokenEconomy is the tracked token's current metrics and history.
type TokenEconomy struct {
	Current *TokenMetric  `json:"current"`
	History []TokenMetric `json:"history"`
}

// TokenMetric is one day of token economics.
type TokenMetric struct {
	Date              string  `json:"date"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"marketCap"`
	Volume24h         float64 `json:"volume24h"`
	CirculatingSupply float64 `json:"circulatingSupply"`
	TotalStaked       float64 `json:"totalStaked"`
	StakedPct         float64 `json:"stakedPct"`
	HolderCount       int64   `json:"holderCount"`
}

// RunSummary is one pipeline run as shown in the health panel.
type RunSummary struct {
	ID         int64   `json:"id"`
	Stage      string  `json:"stage"`
	Status     string  `json:"status"`
	StartedAt  string  `json:"startedAt"`
	FinishedAt *string `json:"finishedAt"`
	Records    int64   `json:"records"`
	Notes      string  `json:"notes"`
}

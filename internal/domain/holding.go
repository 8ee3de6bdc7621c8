package domain

// WalletHolding is the last known balance of one token for one wallet.
// Corresponds to wallet_holdings table, keyed by (wallet, mint).
type WalletHolding struct {
	Wallet    string
	Mint      string
	Symbol    string
	AmountRaw string  // base units, decimal string
	Decimals  int     // -1 when unknown
	Amount    float64 // UI units
	ValueUSD  float64
	UpdatedAt int64 // Unix ms
}

// TokenHoldingSummary is wallet_holdings aggregated by mint.
type TokenHoldingSummary struct {
	Mint        string
	Symbol      string
	TotalAmount float64
	TotalValue  float64
	Holders     int64
}

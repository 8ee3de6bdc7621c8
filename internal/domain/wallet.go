package domain

// Wallet is a registry entry for an address holding a genesis token.
// Corresponds to wallets table in PostgreSQL.
type Wallet struct {
	Address    string  // PRIMARY KEY
	Mint       string  // genesis token mint held by the wallet
	FirstSeen  string  // YYYY-MM-DD
	LastActive *string // YYYY-MM-DD, nil until the activity stage sees it
	Active     bool
}

// WalletMint is one (owner, mint) pair produced by discovery.
type WalletMint struct {
	Wallet string
	Mint   string
}

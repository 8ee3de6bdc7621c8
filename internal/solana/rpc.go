package solana

import "context"

// LedgerClient covers the plain JSON-RPC ledger queries.
type LedgerClient interface {
	// GetSignaturesForAddress returns signatures newest-first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetMultipleAccounts returns one entry per address, nil for missing accounts.
	GetMultipleAccounts(ctx context.Context, addresses []string) ([]*AccountInfo, error)

	// GetTokenAccountBalance returns the balance of one token account.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error)

	// GetTokenSupply returns the total supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetSlot returns the current slot.
	GetSlot(ctx context.Context) (uint64, error)
}

// AssetClient covers the DAS asset index.
type AssetClient interface {
	SearchAssets(ctx context.Context, params SearchAssetsParams) (*AssetPage, error)
	GetAssetsByGroup(ctx context.Context, params GroupParams) (*AssetPage, error)

	// GetAsset returns ErrAssetNotFound when the index has no such asset.
	GetAsset(ctx context.Context, id string) (*Asset, error)

	// GetAssetBatch returns one entry per id, nil for unknown ids.
	GetAssetBatch(ctx context.Context, ids []string) ([]*Asset, error)

	GetTokenAccounts(ctx context.Context, params TokenAccountsParams) (*TokenAccountPage, error)
}

// TransactionDecoder decodes signatures through the enhanced-transaction endpoint.
type TransactionDecoder interface {
	// ParseTransactions decodes up to MaxParseBatch signatures. Signatures the
	// decoder cannot resolve are omitted from the result.
	ParseTransactions(ctx context.Context, signatures []string) ([]EnhancedTransaction, error)
}

// Oracle is the full external data surface used by the pipeline stages.
type Oracle interface {
	LedgerClient
	AssetClient
	TransactionDecoder
}

// Per-call limits imposed by the oracle.
const (
	MaxMultipleAccounts = 100
	MaxParseBatch       = 100
	MaxAssetBatch       = 1000
	MaxSignaturesPage   = 1000
	MaxAssetPage        = 1000
)

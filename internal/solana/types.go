package solana

import (
	"bytes"
	"encoding/json"
)

// LamportsPerSOL converts lamports to SOL.
const LamportsPerSOL = 1e9

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// AccountInfo is one entry of getMultipleAccounts. Data is kept raw because
// jsonParsed returns an object for program accounts and a [data, encoding]
// pair for plain system accounts.
type AccountInfo struct {
	Lamports   uint64          `json:"lamports"`
	Owner      string          `json:"owner"`
	Data       json.RawMessage `json:"data"`
	Executable bool            `json:"executable"`
}

// ParsedMint is the jsonParsed shape of a mint account.
type ParsedMint struct {
	MintAuthority *string `json:"mintAuthority"`
	Supply        string  `json:"supply"`
	Decimals      int     `json:"decimals"`
}

// Mint decodes the account data as a parsed mint. ok is false when the
// account is not a jsonParsed mint.
func (a *AccountInfo) Mint() (mint ParsedMint, ok bool) {
	if a == nil || len(a.Data) == 0 || !bytes.HasPrefix(bytes.TrimSpace(a.Data), []byte("{")) {
		return ParsedMint{}, false
	}
	var data struct {
		Parsed struct {
			Type string     `json:"type"`
			Info ParsedMint `json:"info"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(a.Data, &data); err != nil || data.Parsed.Type != "mint" {
		return ParsedMint{}, false
	}
	return data.Parsed.Info, true
}

// TokenAmount is the value of getTokenAccountBalance and getTokenSupply.
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// UI returns the UI amount, defaulting to zero.
func (t *TokenAmount) UI() float64 {
	if t == nil || t.UIAmount == nil {
		return 0
	}
	return *t.UIAmount
}

// Asset is a DAS asset. Only the fields the pipeline reads are decoded.
type Asset struct {
	ID        string          `json:"id"`
	Interface string          `json:"interface"`
	Ownership AssetOwnership  `json:"ownership"`
	TokenInfo *AssetTokenInfo `json:"token_info,omitempty"`
	Content   *AssetContent   `json:"content,omitempty"`
	Burnt     bool            `json:"burnt"`
}

// AssetOwnership is the ownership block of a DAS asset.
type AssetOwnership struct {
	Owner string `json:"owner"`
}

// AssetTokenInfo is the fungible token block of a DAS asset.
type AssetTokenInfo struct {
	Symbol   string  `json:"symbol"`
	Decimals *int    `json:"decimals"`
	Supply   *uint64 `json:"supply"`
}

// AssetContent is the metadata block of a DAS asset.
type AssetContent struct {
	Metadata struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"metadata"`
}

// Symbol returns the best available ticker for the asset.
func (a *Asset) Symbol() string {
	if a == nil {
		return ""
	}
	if a.TokenInfo != nil && a.TokenInfo.Symbol != "" {
		return a.TokenInfo.Symbol
	}
	if a.Content != nil {
		return a.Content.Metadata.Symbol
	}
	return ""
}

// Decimals returns the token decimals, or -1 when unknown.
func (a *Asset) Decimals() int {
	if a == nil || a.TokenInfo == nil || a.TokenInfo.Decimals == nil {
		return -1
	}
	return *a.TokenInfo.Decimals
}

// AssetPage is one page of searchAssets or getAssetsByGroup.
type AssetPage struct {
	Total int     `json:"total"`
	Limit int     `json:"limit"`
	Page  int     `json:"page"`
	Items []Asset `json:"items"`
}

// SearchAssetsParams are the searchAssets parameters the pipeline uses.
type SearchAssetsParams struct {
	GroupKey   string
	GroupValue string
	Page       int
	Limit      int
}

// GroupParams are the getAssetsByGroup parameters.
type GroupParams struct {
	GroupKey   string
	GroupValue string
	Page       int
	Limit      int
}

// TokenAccount is one entry of DAS getTokenAccounts.
type TokenAccount struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
	Frozen  bool   `json:"frozen"`
}

// TokenAccountsParams filter DAS getTokenAccounts. Exactly one of Owner,
// Mint or ProgramID is expected.
type TokenAccountsParams struct {
	Owner     string
	Mint      string
	ProgramID string
	Limit     int
	Cursor    string
	Page      int
}

// TokenAccountPage is one page of getTokenAccounts.
type TokenAccountPage struct {
	Total         int            `json:"total"`
	Limit         int            `json:"limit"`
	Cursor        string         `json:"cursor"`
	TokenAccounts []TokenAccount `json:"token_accounts"`
}

// EnhancedTransaction is a decoded transaction from the enhanced endpoint.
type EnhancedTransaction struct {
	Signature        string           `json:"signature"`
	Type             string           `json:"type"`
	Source           string           `json:"source"`
	Timestamp        int64            `json:"timestamp"`
	Slot             uint64           `json:"slot"`
	FeePayer         string           `json:"feePayer"`
	TokenTransfers   []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers  []NativeTransfer `json:"nativeTransfers"`
	AccountData      []AccountData    `json:"accountData"`
	TransactionError interface{}      `json:"transactionError"`
}

// TokenTransfer is a token movement inside an enhanced transaction.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
	Mint            string  `json:"mint"`
	TokenStandard   string  `json:"tokenStandard"`
}

// NativeTransfer is a lamport movement inside an enhanced transaction.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// AccountData lists an account touched by an enhanced transaction.
type AccountData struct {
	Account             string `json:"account"`
	NativeBalanceChange int64  `json:"nativeBalanceChange"`
}

// Transaction types reported by the decoder.
const (
	TxTypeSwap = "SWAP"
)

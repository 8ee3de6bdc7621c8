// Package stub provides an in-memory solana.Oracle for stage tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"skr-stats/internal/solana"
)

// ErrInjected is returned for calls configured to fail.
var ErrInjected = errors.New("stub: injected failure")

// Oracle implements solana.Oracle from in-memory fixtures.
//
// Signatures holds newest-first signature lists per address. Fail maps a
// method name (e.g. "searchAssets") to the error it should return; FailKeys
// maps "method:key" to a per-item error.
type Oracle struct {
	mu sync.Mutex

	Signatures   map[string][]solana.SignatureInfo
	Accounts     map[string]*solana.AccountInfo
	Assets       map[string]*solana.Asset
	Group        []solana.Asset
	TokenAccts   map[string][]solana.TokenAccount // by owner
	ProgramAccts []solana.TokenAccount
	Transactions map[string]solana.EnhancedTransaction
	Balances     map[string]*solana.TokenAmount
	Supplies     map[string]*solana.TokenAmount
	Slot         uint64

	Fail     map[string]error
	FailKeys map[string]error

	Calls map[string]int

	parsed []string
}

// New creates an empty stub oracle.
func New() *Oracle {
	return &Oracle{
		Signatures:   make(map[string][]solana.SignatureInfo),
		Accounts:     make(map[string]*solana.AccountInfo),
		Assets:       make(map[string]*solana.Asset),
		TokenAccts:   make(map[string][]solana.TokenAccount),
		Transactions: make(map[string]solana.EnhancedTransaction),
		Balances:     make(map[string]*solana.TokenAmount),
		Supplies:     make(map[string]*solana.TokenAmount),
		Fail:         make(map[string]error),
		FailKeys:     make(map[string]error),
		Calls:        make(map[string]int),
	}
}

var _ solana.Oracle = (*Oracle)(nil)

func (o *Oracle) enter(method string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls[method]++
	return o.Fail[method]
}

func (o *Oracle) failKey(method, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.FailKeys[method+":"+key]
}

// CallCount returns how many times method was invoked.
func (o *Oracle) CallCount(method string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Calls[method]
}

// GetSignaturesForAddress pages the fixture list like the real endpoint:
// newest-first, starting after Before and stopping at Until.
func (o *Oracle) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := o.enter("getSignaturesForAddress"); err != nil {
		return nil, err
	}
	if err := o.failKey("getSignaturesForAddress", address); err != nil {
		return nil, err
	}
	sigs := o.Signatures[address]

	start := 0
	if opts != nil && opts.Before != "" {
		start = len(sigs)
		for i, s := range sigs {
			if s.Signature == opts.Before {
				start = i + 1
				break
			}
		}
	}
	end := len(sigs)
	if opts != nil && opts.Until != "" {
		for i := start; i < len(sigs); i++ {
			if sigs[i].Signature == opts.Until {
				end = i
				break
			}
		}
	}
	if opts != nil && opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	if start >= end {
		return nil, nil
	}
	out := make([]solana.SignatureInfo, end-start)
	copy(out, sigs[start:end])
	return out, nil
}

// GetMultipleAccounts returns fixture accounts, nil for unknown addresses.
func (o *Oracle) GetMultipleAccounts(_ context.Context, addresses []string) ([]*solana.AccountInfo, error) {
	if err := o.enter("getMultipleAccounts"); err != nil {
		return nil, err
	}
	out := make([]*solana.AccountInfo, len(addresses))
	for i, a := range addresses {
		if err := o.failKey("getMultipleAccounts", a); err != nil {
			return nil, err
		}
		out[i] = o.Accounts[a]
	}
	return out, nil
}

// GetTokenAccountBalance returns a fixture balance.
func (o *Oracle) GetTokenAccountBalance(_ context.Context, account string) (*solana.TokenAmount, error) {
	if err := o.enter("getTokenAccountBalance"); err != nil {
		return nil, err
	}
	return o.Balances[account], nil
}

// GetSlot returns the fixture slot.
func (o *Oracle) GetSlot(_ context.Context) (uint64, error) {
	if err := o.enter("getSlot"); err != nil {
		return 0, err
	}
	return o.Slot, nil
}

// GetTokenSupply returns a fixture supply.
func (o *Oracle) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	if err := o.enter("getTokenSupply"); err != nil {
		return nil, err
	}
	return o.Supplies[mint], nil
}

func (o *Oracle) groupPage(page, limit int) *solana.AssetPage {
	if limit <= 0 {
		limit = solana.MaxAssetPage
	}
	start := (page - 1) * limit
	if start < 0 {
		start = 0
	}
	out := &solana.AssetPage{Total: len(o.Group), Limit: limit, Page: page}
	if start >= len(o.Group) {
		return out
	}
	end := start + limit
	if end > len(o.Group) {
		end = len(o.Group)
	}
	out.Items = append(out.Items, o.Group[start:end]...)
	return out
}

// SearchAssets pages the Group fixture.
func (o *Oracle) SearchAssets(_ context.Context, p solana.SearchAssetsParams) (*solana.AssetPage, error) {
	if err := o.enter("searchAssets"); err != nil {
		return nil, err
	}
	return o.groupPage(p.Page, p.Limit), nil
}

// GetAssetsByGroup pages the Group fixture.
func (o *Oracle) GetAssetsByGroup(_ context.Context, p solana.GroupParams) (*solana.AssetPage, error) {
	if err := o.enter("getAssetsByGroup"); err != nil {
		return nil, err
	}
	return o.groupPage(p.Page, p.Limit), nil
}

// GetAsset returns a fixture asset.
func (o *Oracle) GetAsset(_ context.Context, id string) (*solana.Asset, error) {
	if err := o.enter("getAsset"); err != nil {
		return nil, err
	}
	if err := o.failKey("getAsset", id); err != nil {
		return nil, err
	}
	a, ok := o.Assets[id]
	if !ok {
		return nil, solana.ErrAssetNotFound
	}
	return a, nil
}

// GetAssetBatch returns fixture assets, nil for unknown ids.
func (o *Oracle) GetAssetBatch(_ context.Context, ids []string) ([]*solana.Asset, error) {
	if err := o.enter("getAssetBatch"); err != nil {
		return nil, err
	}
	out := make([]*solana.Asset, len(ids))
	for i, id := range ids {
		out[i] = o.Assets[id]
	}
	return out, nil
}

// GetTokenAccounts serves owner queries from TokenAccts and program queries
// from ProgramAccts. The cursor is the index of the next account.
func (o *Oracle) GetTokenAccounts(_ context.Context, p solana.TokenAccountsParams) (*solana.TokenAccountPage, error) {
	if err := o.enter("getTokenAccounts"); err != nil {
		return nil, err
	}
	var accts []solana.TokenAccount
	switch {
	case p.Owner != "":
		if err := o.failKey("getTokenAccounts", p.Owner); err != nil {
			return nil, err
		}
		accts = o.TokenAccts[p.Owner]
	case p.ProgramID != "":
		accts = o.ProgramAccts
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 1000
	}
	start := 0
	if p.Cursor != "" {
		for i := range accts {
			if accts[i].Address == p.Cursor {
				start = i
				break
			}
		}
	}
	end := start + limit
	if end > len(accts) {
		end = len(accts)
	}
	page := &solana.TokenAccountPage{Limit: limit, Total: end - start}
	page.TokenAccounts = append(page.TokenAccounts, accts[start:end]...)
	if end < len(accts) {
		page.Cursor = accts[end].Address
	}
	return page, nil
}

// ParseTransactions returns fixture transactions in request order, omitting
// unknown signatures.
func (o *Oracle) ParseTransactions(_ context.Context, signatures []string) ([]solana.EnhancedTransaction, error) {
	if err := o.enter("parseTransactions"); err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.parsed = append(o.parsed, signatures...)
	o.mu.Unlock()

	var out []solana.EnhancedTransaction
	for _, s := range signatures {
		if tx, ok := o.Transactions[s]; ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ParsedSignatures returns every signature passed to ParseTransactions, in
// call order.
func (o *Oracle) ParsedSignatures() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.parsed...)
}

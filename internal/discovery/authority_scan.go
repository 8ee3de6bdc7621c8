package discovery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"skr-stats/internal/batch"
	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/solana"
	"skr-stats/internal/storage"
)

// AuthorityScanStrategy walks the mint authority's signature history from
// the stored cursor forward and resolves the current owner of every genesis
// token minted since.
type AuthorityScanStrategy struct {
	ledger    solana.LedgerClient
	assets    solana.AssetClient
	decoder   solana.TransactionDecoder
	cursors   storage.CursorStore
	authority string
	pageCap   int
	logger    *zap.Logger
}

// NewAuthorityScanStrategy creates a resumable authority scan.
func NewAuthorityScanStrategy(oracle solana.Oracle, cursors storage.CursorStore, authority string, pageCap int, logger *zap.Logger) *AuthorityScanStrategy {
	return &AuthorityScanStrategy{
		ledger:    oracle,
		assets:    oracle,
		decoder:   oracle,
		cursors:   cursors,
		authority: authority,
		pageCap:   pageCap,
		logger:    logging.OrNop(logger),
	}
}

// Name returns the strategy name.
func (a *AuthorityScanStrategy) Name() string { return "authorityScan" }

// Discover returns wallets for tokens minted after the cursor. The returned
// cursor is the newest signature whose chunk was fully decoded.
func (a *AuthorityScanStrategy) Discover(ctx context.Context) (*Result, error) {
	last := ""
	state, err := a.cursors.Get(ctx, domain.CursorAuthorityScan)
	switch {
	case err == nil:
		last = state.Value
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load cursor: %w", err)
	}

	sigs, err := a.newSignatures(ctx, last)
	if err != nil {
		return nil, err
	}

	res := &Result{Incremental: true}
	if len(sigs) == 0 {
		return res, nil
	}

	// Oldest first, so a failed chunk never lets the cursor skip ahead of it.
	for i, j := 0, len(sigs)-1; i < j; i, j = i+1, j-1 {
		sigs[i], sigs[j] = sigs[j], sigs[i]
	}

	recipients := make(map[string]string) // mint -> recipient at mint time
	var mints []string
	newest := ""
	for _, chunk := range batch.Chunk(sigs, solana.MaxParseBatch) {
		txs, err := a.decoder.ParseTransactions(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if newest == "" {
				return nil, fmt.Errorf("decode transactions: %w", err)
			}
			a.logger.Warn("decode chunk failed; cursor held before it",
				zap.Int("signatures", len(chunk)), zap.Error(err))
			break
		}
		for _, tx := range txs {
			if tx.TransactionError != nil {
				continue
			}
			for _, tt := range tx.TokenTransfers {
				if tt.TokenAmount != 1 || tt.Mint == "" || !solana.IsOnCurve(tt.ToUserAccount) {
					continue
				}
				if _, seen := recipients[tt.Mint]; !seen {
					mints = append(mints, tt.Mint)
				}
				recipients[tt.Mint] = tt.ToUserAccount
			}
		}
		newest = chunk[len(chunk)-1]
	}

	owners := a.resolveOwners(ctx, mints)
	for _, mint := range mints {
		owner, ok := owners[mint]
		if !ok {
			a.logger.Info("owner unresolved; mint skipped",
				zap.String("mint", mint), zap.String("minted_to", recipients[mint]))
			continue
		}
		res.Wallets = append(res.Wallets, domain.WalletMint{Wallet: owner, Mint: mint})
	}

	if newest != "" && newest != last {
		res.Cursor = &domain.CursorState{Key: domain.CursorAuthorityScan, Value: newest}
	}
	return res, nil
}

// newSignatures pages newest-first until the cursor, a short page or the page
// cap, dropping failed transactions. The result is newest-first.
func (a *AuthorityScanStrategy) newSignatures(ctx context.Context, until string) ([]string, error) {
	var out []string
	before := ""
	for page := 1; a.pageCap <= 0 || page <= a.pageCap; page++ {
		infos, err := a.ledger.GetSignaturesForAddress(ctx, a.authority, &solana.SignaturesOpts{
			Before: before,
			Until:  until,
			Limit:  solana.MaxSignaturesPage,
		})
		if err != nil {
			return nil, fmt.Errorf("signatures page %d: %w", page, err)
		}

		reached := false
		for _, info := range infos {
			if until != "" && info.Signature == until {
				reached = true
				break
			}
			if info.Err != nil {
				continue
			}
			out = append(out, info.Signature)
		}
		if reached || len(infos) < solana.MaxSignaturesPage {
			return out, nil
		}
		before = infos[len(infos)-1].Signature
	}
	a.logger.Warn("authority scan page cap reached", zap.Int("pages", a.pageCap))
	return out, nil
}

// resolveOwners looks up current owners, falling back to single lookups when
// a batch call fails. Unresolvable mints are absent from the result.
func (a *AuthorityScanStrategy) resolveOwners(ctx context.Context, mints []string) map[string]string {
	owners := make(map[string]string, len(mints))
	for _, chunk := range batch.Chunk(mints, solana.MaxAssetBatch) {
		assets, err := a.assets.GetAssetBatch(ctx, chunk)
		if err == nil {
			for i, asset := range assets {
				if asset != nil && !asset.Burnt && asset.Ownership.Owner != "" {
					owners[chunk[i]] = asset.Ownership.Owner
				}
			}
			continue
		}

		a.logger.Warn("asset batch failed; resolving one by one", zap.Int("mints", len(chunk)), zap.Error(err))
		for _, mint := range chunk {
			if ctx.Err() != nil {
				return owners
			}
			asset, err := a.assets.GetAsset(ctx, mint)
			if err != nil {
				if !errors.Is(err, solana.ErrAssetNotFound) {
					a.logger.Warn("asset lookup failed", zap.String("mint", mint), zap.Error(err))
				}
				continue
			}
			if !asset.Burnt && asset.Ownership.Owner != "" {
				owners[mint] = asset.Ownership.Owner
			}
		}
	}
	return owners
}

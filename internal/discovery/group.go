package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/solana"
)

// groupKey is the DAS grouping used by the genesis token collection.
const groupKey = "collection"

type pageFunc func(ctx context.Context, page, limit int) (*solana.AssetPage, error)

// GroupStrategy pages a DAS group index and reads each asset's owner.
type GroupStrategy struct {
	name    string
	fetch   pageFunc
	pageCap int
	limit   int
	logger  *zap.Logger
}

// NewSearchAssetsStrategy enumerates the group through searchAssets.
func NewSearchAssetsStrategy(client solana.AssetClient, group string, pageCap int, logger *zap.Logger) *GroupStrategy {
	return &GroupStrategy{
		name: "searchAssets",
		fetch: func(ctx context.Context, page, limit int) (*solana.AssetPage, error) {
			return client.SearchAssets(ctx, solana.SearchAssetsParams{
				GroupKey:   groupKey,
				GroupValue: group,
				Page:       page,
				Limit:      limit,
			})
		},
		pageCap: pageCap,
		limit:   solana.MaxAssetPage,
		logger:  logging.OrNop(logger),
	}
}

// NewAssetsByGroupStrategy enumerates the group through getAssetsByGroup.
func NewAssetsByGroupStrategy(client solana.AssetClient, group string, pageCap int, logger *zap.Logger) *GroupStrategy {
	return &GroupStrategy{
		name: "getAssetsByGroup",
		fetch: func(ctx context.Context, page, limit int) (*solana.AssetPage, error) {
			return client.GetAssetsByGroup(ctx, solana.GroupParams{
				GroupKey:   groupKey,
				GroupValue: group,
				Page:       page,
				Limit:      limit,
			})
		},
		pageCap: pageCap,
		limit:   solana.MaxAssetPage,
		logger:  logging.OrNop(logger),
	}
}

// Name returns the index method used.
func (g *GroupStrategy) Name() string { return g.name }

// Discover pages the group until a short page. Hitting the page cap yields
// an incomplete result.
func (g *GroupStrategy) Discover(ctx context.Context) (*Result, error) {
	res := &Result{}
	for page := 1; ; page++ {
		if g.pageCap > 0 && page > g.pageCap {
			g.logger.Warn("group page cap reached", zap.String("strategy", g.name), zap.Int("pages", g.pageCap))
			return res, nil
		}

		p, err := g.fetch(ctx, page, g.limit)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", g.name, page, err)
		}

		for _, a := range p.Items {
			if a.Burnt || a.ID == "" || a.Ownership.Owner == "" {
				continue
			}
			res.Wallets = append(res.Wallets, domain.WalletMint{Wallet: a.Ownership.Owner, Mint: a.ID})
		}
		g.logger.Debug("group page fetched",
			zap.String("strategy", g.name),
			zap.Int("page", page),
			zap.Int("items", len(p.Items)),
			zap.Int("total", len(res.Wallets)),
		)

		if len(p.Items) < g.limit {
			res.Complete = true
			return res, nil
		}
	}
}

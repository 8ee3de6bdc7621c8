package solana

import (
	"context"
	"fmt"
)

// SearchAssets pages the asset index filtered by a grouping.
func (c *HTTPClient) SearchAssets(ctx context.Context, p SearchAssetsParams) (*AssetPage, error) {
	params := map[string]interface{}{
		"grouping": []string{p.GroupKey, p.GroupValue},
		"page":     p.Page,
		"limit":    p.Limit,
	}
	var page AssetPage
	if err := c.call(ctx, "searchAssets", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAssetsByGroup pages all assets belonging to a group.
func (c *HTTPClient) GetAssetsByGroup(ctx context.Context, p GroupParams) (*AssetPage, error) {
	params := map[string]interface{}{
		"groupKey":   p.GroupKey,
		"groupValue": p.GroupValue,
		"page":       p.Page,
		"limit":      p.Limit,
	}
	var page AssetPage
	if err := c.call(ctx, "getAssetsByGroup", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAsset fetches one asset by id.
func (c *HTTPClient) GetAsset(ctx context.Context, id string) (*Asset, error) {
	var asset *Asset
	if err := c.call(ctx, "getAsset", map[string]interface{}{"id": id}, &asset); err != nil {
		return nil, err
	}
	if asset == nil || asset.ID == "" {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// GetAssetBatch fetches up to MaxAssetBatch assets in one call.
func (c *HTTPClient) GetAssetBatch(ctx context.Context, ids []string) ([]*Asset, error) {
	if len(ids) > MaxAssetBatch {
		return nil, fmt.Errorf("getAssetBatch: %d ids exceeds limit %d", len(ids), MaxAssetBatch)
	}
	var assets []*Asset
	if err := c.call(ctx, "getAssetBatch", map[string]interface{}{"ids": ids}, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetTokenAccounts pages token accounts filtered by owner, mint or program.
func (c *HTTPClient) GetTokenAccounts(ctx context.Context, p TokenAccountsParams) (*TokenAccountPage, error) {
	params := map[string]interface{}{}
	if p.Owner != "" {
		params["owner"] = p.Owner
	}
	if p.Mint != "" {
		params["mint"] = p.Mint
	}
	if p.ProgramID != "" {
		params["programId"] = p.ProgramID
	}
	if p.Limit > 0 {
		params["limit"] = p.Limit
	}
	if p.Cursor != "" {
		params["cursor"] = p.Cursor
	} else if p.Page > 0 {
		params["page"] = p.Page
	}

	var page TokenAccountPage
	if err := c.call(ctx, "getTokenAccounts", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

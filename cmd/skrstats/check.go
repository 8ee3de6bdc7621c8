package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skr-stats/internal/config"
	"skr-stats/internal/solana"
)

// sampleAssets is how many group assets the index check reads.
const sampleAssets = 10

// checkResult is the outcome of one connectivity check.
type checkResult struct {
	Name   string
	Detail string
	Err    error
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify oracle connectivity and the configured chain addresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt := fromContext(ctx)
			a := &app{cfg: rt.cfg, logger: rt.logger}
			oracle, err := a.getOracle()
			if err != nil {
				return err
			}
			return reportChecks(runChecks(ctx, oracle, rt.cfg.Chain), rt.logger)
		},
	}
}

// reportChecks logs each result and fails when any check failed.
func reportChecks(results []checkResult, logger *zap.Logger) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("check failed", zap.String("check", r.Name), zap.Error(r.Err))
			continue
		}
		logger.Info("check passed", zap.String("check", r.Name), zap.String("detail", r.Detail))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

// runChecks exercises every oracle surface the stages depend on. Nothing
// else runs once the RPC itself is unreachable.
func runChecks(ctx context.Context, oracle solana.Oracle, chain config.Chain) []checkResult {
	var results []checkResult
	add := func(name, detail string, err error) {
		results = append(results, checkResult{Name: name, Detail: detail, Err: err})
	}

	slot, err := oracle.GetSlot(ctx)
	add("rpc", fmt.Sprintf("slot=%d", slot), err)
	if err != nil {
		return results
	}

	detail, err := checkAccount(ctx, oracle, chain.GroupAddress)
	add("group account", detail, err)

	detail, err = checkMint(ctx, oracle, chain.TokenMint)
	add("token mint", detail, err)

	owner, detail, err := checkGroupIndex(ctx, oracle, chain.GroupAddress)
	add("group index", detail, err)

	if owner == "" {
		add("wallet balances", "", errors.New("no sample wallet from the group index"))
		return results
	}
	detail, err = checkWallet(ctx, oracle, owner)
	add("wallet balances", detail, err)
	return results
}

func account(ctx context.Context, oracle solana.Oracle, address string) (*solana.AccountInfo, error) {
	accts, err := oracle.GetMultipleAccounts(ctx, []string{address})
	if err != nil {
		return nil, err
	}
	if len(accts) == 0 || accts[0] == nil {
		return nil, fmt.Errorf("account %s not found", address)
	}
	return accts[0], nil
}

func checkAccount(ctx context.Context, oracle solana.Oracle, address string) (string, error) {
	acct, err := account(ctx, oracle, address)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("owner=%s lamports=%d", acct.Owner, acct.Lamports), nil
}

func checkMint(ctx context.Context, oracle solana.Oracle, mint string) (string, error) {
	acct, err := account(ctx, oracle, mint)
	if err != nil {
		return "", err
	}
	supply, err := oracle.GetTokenSupply(ctx, mint)
	if err != nil {
		return "", fmt.Errorf("token supply: %w", err)
	}
	if supply == nil {
		return "", errors.New("token supply: empty response")
	}
	return fmt.Sprintf("owner=%s supply=%s decimals=%d", acct.Owner, supply.UIAmountString, supply.Decimals), nil
}

// checkGroupIndex reads a few group assets, falling back from searchAssets
// to getAssetsByGroup the way discovery does. It returns the first owner.
func checkGroupIndex(ctx context.Context, oracle solana.Oracle, group string) (string, string, error) {
	method := "searchAssets"
	page, err := oracle.SearchAssets(ctx, solana.SearchAssetsParams{
		GroupKey: "collection", GroupValue: group, Page: 1, Limit: sampleAssets,
	})
	if err != nil || page == nil || len(page.Items) == 0 {
		method = "getAssetsByGroup"
		var gerr error
		page, gerr = oracle.GetAssetsByGroup(ctx, solana.GroupParams{
			GroupKey: "collection", GroupValue: group, Page: 1, Limit: sampleAssets,
		})
		if gerr != nil {
			return "", "", errors.Join(err, gerr)
		}
	}
	if page == nil || len(page.Items) == 0 {
		return "", "", errors.New("group index returned no assets")
	}

	var owner string
	for _, a := range page.Items {
		if a.Ownership.Owner != "" {
			owner = a.Ownership.Owner
			break
		}
	}
	return owner, fmt.Sprintf("total=%d sampled=%d via=%s", page.Total, len(page.Items), method), nil
}

func checkWallet(ctx context.Context, oracle solana.Oracle, owner string) (string, error) {
	accts, err := oracle.GetMultipleAccounts(ctx, []string{owner})
	if err != nil {
		return "", fmt.Errorf("native balance: %w", err)
	}
	var lamports uint64
	if len(accts) > 0 && accts[0] != nil {
		lamports = accts[0].Lamports
	}
	tokens, err := oracle.GetTokenAccounts(ctx, solana.TokenAccountsParams{Owner: owner, Limit: sampleAssets})
	if err != nil {
		return "", fmt.Errorf("token accounts: %w", err)
	}
	n := 0
	if tokens != nil {
		n = len(tokens.TokenAccounts)
	}
	sol := decimal.NewFromInt(int64(lamports)).Shift(-9)
	return fmt.Sprintf("wallet=%s sol=%s token_accounts=%d", owner, sol.StringFixed(4), n), nil
}

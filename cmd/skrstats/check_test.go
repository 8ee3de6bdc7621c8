package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"skr-stats/internal/config"
	"skr-stats/internal/solana"
	"skr-stats/internal/solana/stub"
)

func healthyOracle(chain config.Chain) *stub.Oracle {
	o := stub.New()
	o.Slot = 300
	o.Accounts[chain.GroupAddress] = &solana.AccountInfo{Owner: chain.TokenProgram, Lamports: 10}
	o.Accounts[chain.TokenMint] = &solana.AccountInfo{Owner: chain.TokenProgram, Lamports: 20}
	o.Accounts["Holder1"] = &solana.AccountInfo{Lamports: 1_250_000_000}
	o.Supplies[chain.TokenMint] = &solana.TokenAmount{Amount: "1000", Decimals: 6, UIAmountString: "0.001"}
	o.Group = []solana.Asset{{ID: "SGT1", Ownership: solana.AssetOwnership{Owner: "Holder1"}}}
	o.TokenAccts["Holder1"] = []solana.TokenAccount{{Address: "ta1", Mint: chain.TokenMint, Owner: "Holder1", Amount: 5}}
	return o
}

func byName(results []checkResult) map[string]checkResult {
	out := make(map[string]checkResult, len(results))
	for _, r := range results {
		out[r.Name] = r
	}
	return out
}

func TestRunChecks_AllPass(t *testing.T) {
	chain := config.Default().Chain
	results := runChecks(context.Background(), healthyOracle(chain), chain)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Name)
	}

	got := byName(results)
	assert.Equal(t, "slot=300", got["rpc"].Detail)
	assert.Contains(t, got["token mint"].Detail, "decimals=6")
	assert.Equal(t, "total=1 sampled=1 via=searchAssets", got["group index"].Detail)
	assert.Equal(t, "wallet=Holder1 sol=1.2500 token_accounts=1", got["wallet balances"].Detail)
	assert.NoError(t, reportChecks(results, zaptest.NewLogger(t)))
}

func TestRunChecks_SearchFallsBackToGroupIndex(t *testing.T) {
	chain := config.Default().Chain
	oracle := healthyOracle(chain)
	oracle.Fail["searchAssets"] = stub.ErrInjected

	got := byName(runChecks(context.Background(), oracle, chain))
	require.NoError(t, got["group index"].Err)
	assert.Contains(t, got["group index"].Detail, "via=getAssetsByGroup")
	assert.NoError(t, got["wallet balances"].Err)
}

func TestRunChecks_RPCDownStopsEarly(t *testing.T) {
	chain := config.Default().Chain
	oracle := healthyOracle(chain)
	oracle.Fail["getSlot"] = stub.ErrInjected

	results := runChecks(context.Background(), oracle, chain)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, stub.ErrInjected)
	assert.Zero(t, oracle.CallCount("getMultipleAccounts"))

	err := reportChecks(results, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Equal(t, "1 of 1 checks failed", err.Error())
}

func TestRunChecks_MissingMintFails(t *testing.T) {
	chain := config.Default().Chain
	oracle := healthyOracle(chain)
	delete(oracle.Accounts, chain.TokenMint)

	results := runChecks(context.Background(), oracle, chain)
	got := byName(results)
	require.Error(t, got["token mint"].Err)
	assert.Contains(t, got["token mint"].Err.Error(), "not found")
	assert.NoError(t, got["group account"].Err)

	err := reportChecks(results, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Equal(t, "1 of 5 checks failed", err.Error())
}

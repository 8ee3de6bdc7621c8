package activity

import (
	"context"
	"fmt"
	"sort"

	"skr-stats/internal/catalog"
	"skr-stats/internal/solana"
)

// maxDecodePerWallet caps enhanced-transaction decodes per wallet.
const maxDecodePerWallet = 10

// walletScan is the observation of one wallet over the last 24 hours.
type walletScan struct {
	Wallet    string
	TxCount   int64
	SwapCount int64
	VolumeSOL float64
	Programs  map[string]*programUse // by program id

	// DecodeErr is set when classification failed. The wallet's activity
	// and raw tx count still stand.
	DecodeErr error
}

type programUse struct {
	TxCount   int64
	VolumeSOL float64
}

func (w walletScan) active() bool {
	return w.TxCount > 0
}

func (w walletScan) programIDs() []string {
	out := make([]string, 0, len(w.Programs))
	for id := range w.Programs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// scanWallet reads recent signatures for wallet and classifies up to
// maxDecodePerWallet of those not older than cutoff (unix seconds). Only a
// signature fetch failure is returned as an error; a decode failure leaves
// the wallet active with its raw count and no classification.
func scanWallet(ctx context.Context, oracle solana.Oracle, wallet string, sigLimit int, cutoff int64) (walletScan, error) {
	out := walletScan{Wallet: wallet, Programs: make(map[string]*programUse)}

	sigs, err := oracle.GetSignaturesForAddress(ctx, wallet, &solana.SignaturesOpts{Limit: sigLimit})
	if err != nil {
		return out, fmt.Errorf("get signatures: %w", err)
	}

	var recent []string
	for _, s := range sigs {
		if s.BlockTime != nil && *s.BlockTime >= cutoff {
			recent = append(recent, s.Signature)
		}
	}
	if len(recent) == 0 {
		return out, nil
	}
	out.TxCount = int64(len(recent))

	if len(recent) > maxDecodePerWallet {
		recent = recent[:maxDecodePerWallet]
	}
	txs, err := oracle.ParseTransactions(ctx, recent)
	if err != nil {
		out.DecodeErr = fmt.Errorf("parse transactions: %w", err)
		return out, nil
	}

	for _, tx := range txs {
		var volume float64
		if tx.Type == solana.TxTypeSwap {
			out.SwapCount++
			volume = swapVolumeSOL(tx)
			out.VolumeSOL += volume
		}
		for _, id := range matchPrograms(tx) {
			use, ok := out.Programs[id]
			if !ok {
				use = &programUse{}
				out.Programs[id] = use
			}
			use.TxCount++
			use.VolumeSOL += volume
		}
	}
	return out, nil
}

// swapVolumeSOL is the SOL proxy of a swap: the sum of its positive native
// transfers.
func swapVolumeSOL(tx solana.EnhancedTransaction) float64 {
	var lamports int64
	for _, nt := range tx.NativeTransfers {
		if nt.Amount > 0 {
			lamports += nt.Amount
		}
	}
	return float64(lamports) / solana.LamportsPerSOL
}

// matchPrograms returns the catalog programs a transaction touched, each at
// most once. Unknown programs are ignored.
func matchPrograms(tx solana.EnhancedTransaction) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, a := range tx.AccountData {
		if p, ok := catalog.LookupProgram(a.Account); ok {
			add(p.ID)
		}
	}
	for _, p := range catalog.MatchSource(tx.Source) {
		add(p.ID)
	}
	return out
}

package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"skr-stats/internal/batch"
	"skr-stats/internal/domain"
	"skr-stats/internal/logging"
	"skr-stats/internal/solana"
)

// ProgramAccountStrategy scans every token account of the token program and
// keeps single-unit accounts whose mint was issued by the genesis authority.
type ProgramAccountStrategy struct {
	assets        solana.AssetClient
	ledger        solana.LedgerClient
	programID     string
	mintAuthority string
	pageCap       int
	limit         int
	logger        *zap.Logger
}

// NewProgramAccountStrategy creates a program scan strategy.
func NewProgramAccountStrategy(assets solana.AssetClient, ledger solana.LedgerClient, programID, mintAuthority string, pageCap int, logger *zap.Logger) *ProgramAccountStrategy {
	return &ProgramAccountStrategy{
		assets:        assets,
		ledger:        ledger,
		programID:     programID,
		mintAuthority: mintAuthority,
		pageCap:       pageCap,
		limit:         solana.MaxAssetPage,
		logger:        logging.OrNop(logger),
	}
}

// Name returns the strategy name.
func (p *ProgramAccountStrategy) Name() string { return "programAccounts" }

// Discover pages token accounts by cursor, then verifies candidate mints in
// batches of getMultipleAccounts.
func (p *ProgramAccountStrategy) Discover(ctx context.Context) (*Result, error) {
	ownerByMint := make(map[string]string)
	var mints []string
	complete := false
	cursor := ""

	for page := 1; p.pageCap <= 0 || page <= p.pageCap; page++ {
		resp, err := p.assets.GetTokenAccounts(ctx, solana.TokenAccountsParams{
			ProgramID: p.programID,
			Limit:     p.limit,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("token accounts page %d: %w", page, err)
		}

		for _, acct := range resp.TokenAccounts {
			if acct.Amount != 1 || acct.Mint == "" || acct.Owner == "" {
				continue
			}
			if _, seen := ownerByMint[acct.Mint]; !seen {
				mints = append(mints, acct.Mint)
			}
			ownerByMint[acct.Mint] = acct.Owner
		}

		if resp.Cursor == "" || len(resp.TokenAccounts) < p.limit {
			complete = true
			break
		}
		cursor = resp.Cursor
	}
	if !complete {
		p.logger.Warn("program scan page cap reached", zap.Int("pages", p.pageCap))
	}

	res := &Result{}
	for _, chunk := range batch.Chunk(mints, solana.MaxMultipleAccounts) {
		accounts, err := p.ledger.GetMultipleAccounts(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("verify mint authority", zap.Int("mints", len(chunk)), zap.Error(err))
			complete = false
			continue
		}
		for i, acct := range accounts {
			mint, ok := acct.Mint()
			if !ok || mint.MintAuthority == nil || *mint.MintAuthority != p.mintAuthority {
				continue
			}
			res.Wallets = append(res.Wallets, domain.WalletMint{Wallet: ownerByMint[chunk[i]], Mint: chunk[i]})
		}
	}
	res.Complete = complete
	return res, nil
}

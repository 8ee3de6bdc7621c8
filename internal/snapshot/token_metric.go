package snapshot

import (
	"context"
	"math"

	"go.uber.org/zap"

	"skr-stats/internal/domain"
)

// tokenMetric assembles the tracked token's daily economics. Every external
// source is optional; failures leave their fields at zero.
func (s *Stage) tokenMetric(ctx context.Context, date string, price float64, sampledHolders int, factor float64) domain.TokenMetric {
	m := domain.TokenMetric{
		Date:        date,
		Price:       price,
		HolderCount: int64(math.Round(float64(sampledHolders) * factor)),
	}

	if s.market != nil && s.opts.MarketCoinID != "" {
		mk, err := s.market.Market(ctx, s.opts.MarketCoinID)
		if err != nil {
			s.logger.Warn("market data unavailable", zap.String("coin", s.opts.MarketCoinID), zap.Error(err))
		} else {
			m.MarketCap = mk.MarketCapUSD
			m.Volume24h = mk.Volume24hUSD
			m.CirculatingSupply = mk.CirculatingSupply
			if m.Price == 0 {
				m.Price = mk.PriceUSD
			}
		}
	}

	if m.CirculatingSupply == 0 && s.opts.TokenMint != "" {
		supply, err := s.oracle.GetTokenSupply(ctx, s.opts.TokenMint)
		if err != nil {
			s.logger.Warn("token supply unavailable", zap.Error(err))
		} else {
			m.CirculatingSupply = supply.UI()
		}
	}
	if m.MarketCap == 0 {
		m.MarketCap = m.Price * m.CirculatingSupply
	}

	if s.opts.StakingVault != "" {
		bal, err := s.oracle.GetTokenAccountBalance(ctx, s.opts.StakingVault)
		if err != nil {
			s.logger.Warn("staking vault unavailable", zap.Error(err))
		} else {
			m.TotalStaked = bal.UI()
		}
	}
	if m.CirculatingSupply > 0 {
		m.StakedPct = m.TotalStaked / m.CirculatingSupply * 100
	}
	return m
}

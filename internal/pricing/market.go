package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"skr-stats/internal/solana"
)

// Market is the market data of one coin.
type Market struct {
	PriceUSD          float64
	MarketCapUSD      float64
	Volume24hUSD      float64
	CirculatingSupply float64
}

// CoinGecko reads market data from the CoinGecko API.
type CoinGecko struct {
	baseURL string
	retrier *solana.Retrier
}

// NewCoinGecko creates a CoinGecko client.
func NewCoinGecko(baseURL string, logger *zap.Logger, opts ...solana.ClientOption) *CoinGecko {
	return &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		retrier: solana.NewRetrier(append([]solana.ClientOption{solana.WithLogger(logger)}, opts...)...),
	}
}

type coinResponse struct {
	MarketData struct {
		CurrentPrice      map[string]flexFloat `json:"current_price"`
		MarketCap         map[string]flexFloat `json:"market_cap"`
		TotalVolume       map[string]flexFloat `json:"total_volume"`
		CirculatingSupply flexFloat            `json:"circulating_supply"`
	} `json:"market_data"`
}

// Market fetches the market data for coinID.
func (c *CoinGecko) Market(ctx context.Context, coinID string) (*Market, error) {
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	endpoint := c.baseURL + "/coins/" + url.PathEscape(coinID) + "?" + q.Encode()

	newReq := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	var resp coinResponse
	err := c.retrier.Do(ctx, "coingeckoMarket", newReq, func(body []byte) error {
		resp = coinResponse{}
		return json.Unmarshal(body, &resp)
	})
	if err != nil {
		return nil, err
	}

	md := resp.MarketData
	return &Market{
		PriceUSD:          float64(md.CurrentPrice["usd"]),
		MarketCapUSD:      float64(md.MarketCap["usd"]),
		Volume24hUSD:      float64(md.TotalVolume["usd"]),
		CirculatingSupply: float64(md.CirculatingSupply),
	}, nil
}

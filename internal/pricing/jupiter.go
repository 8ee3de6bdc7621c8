package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"skr-stats/internal/batch"
	"skr-stats/internal/solana"
)

// Jupiter reads prices from the Jupiter price API.
type Jupiter struct {
	baseURL string
	retrier *solana.Retrier
	logger  *zap.Logger
}

// NewJupiter creates a Jupiter price client. opts configure retry and backoff
// the same way as for the oracle client.
func NewJupiter(baseURL string, logger *zap.Logger, opts ...solana.ClientOption) *Jupiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Jupiter{
		baseURL: strings.TrimRight(baseURL, "/"),
		retrier: solana.NewRetrier(append([]solana.ClientOption{solana.WithLogger(logger)}, opts...)...),
		logger:  logger,
	}
}

type jupiterResponse struct {
	Data map[string]*struct {
		ID    string    `json:"id"`
		Price flexFloat `json:"price"`
	} `json:"data"`
}

// Prices resolves prices in chunks of MaxIDsPerCall. A failed chunk is logged
// and its mints stay unpriced.
func (j *Jupiter) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	out := make(map[string]float64)
	var errs []error

	for _, chunk := range batch.Chunk(dedupe(mints), MaxIDsPerCall) {
		endpoint := j.baseURL + "?ids=" + url.QueryEscape(strings.Join(chunk, ","))
		newReq := func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		}

		var resp jupiterResponse
		err := j.retrier.Do(ctx, "jupiterPrice", newReq, func(body []byte) error {
			resp = jupiterResponse{}
			return json.Unmarshal(body, &resp)
		})
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			j.logger.Warn("price chunk failed", zap.Int("ids", len(chunk)), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		for mint, entry := range resp.Data {
			if entry == nil || entry.Price <= 0 {
				continue
			}
			out[mint] = float64(entry.Price)
		}
	}

	if len(errs) > 0 {
		return out, fmt.Errorf("jupiter: %d chunk(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return out, nil
}

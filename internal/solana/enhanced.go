package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ParseTransactions decodes signatures through POST {api}/v0/transactions.
func (c *HTTPClient) ParseTransactions(ctx context.Context, signatures []string) ([]EnhancedTransaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}
	if len(signatures) > MaxParseBatch {
		return nil, fmt.Errorf("parseTransactions: %d signatures exceeds limit %d", len(signatures), MaxParseBatch)
	}

	body, err := json.Marshal(map[string][]string{"transactions": signatures})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint, err := withAPIKey(c.apiURL+"/v0/transactions", c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}

	newReq := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var txs []EnhancedTransaction
	err = c.retrier.Do(ctx, "parseTransactions", newReq, func(respBody []byte) error {
		txs = txs[:0]
		return json.Unmarshal(respBody, &txs)
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// ErrAssetNotFound is returned by GetAsset for ids the index does not know.
var ErrAssetNotFound = errors.New("asset not found")

// HTTPClient implements Oracle over JSON-RPC 2.0 and the enhanced REST API.
type HTTPClient struct {
	rpcEndpoint string
	apiURL      string
	apiKey      string
	retrier     *Retrier
	requestID   atomic.Uint64
}

// NewHTTPClient creates a client. apiKey is appended to every request as the
// api-key query parameter when non-empty.
func NewHTTPClient(rpcURL, apiURL, apiKey string, opts ...ClientOption) (*HTTPClient, error) {
	endpoint, err := withAPIKey(rpcURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("rpc url: %w", err)
	}
	return &HTTPClient{
		rpcEndpoint: endpoint,
		apiURL:      strings.TrimRight(apiURL, "/"),
		apiKey:      apiKey,
		retrier:     NewRetrier(opts...),
	}, nil
}

func withAPIKey(raw, apiKey string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("api-key", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call performs a JSON-RPC call. Ledger methods take positional params, DAS
// methods take a params object.
func (c *HTTPClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	newReq := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcEndpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	return c.retrier.Do(ctx, method, newReq, func(respBody []byte) error {
		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			return err
		}
		if rpcResp.Error != nil {
			return &PermanentError{Op: method, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		}
		if result != nil && len(rpcResp.Result) > 0 {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return &PermanentError{Op: method, Message: fmt.Sprintf("unmarshal result: %v", err)}
			}
		}
		return nil
	})
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := make(map[string]interface{})
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	params := []interface{}{address}
	if len(config) > 0 {
		params = append(params, config)
	}

	var result []getSignaturesResult
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}

	return sigs, nil
}

// getSignaturesResult is the raw RPC response item for getSignaturesForAddress.
type getSignaturesResult struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// GetMultipleAccounts fetches up to MaxMultipleAccounts accounts in one call.
func (c *HTTPClient) GetMultipleAccounts(ctx context.Context, addresses []string) ([]*AccountInfo, error) {
	if len(addresses) > MaxMultipleAccounts {
		return nil, fmt.Errorf("getMultipleAccounts: %d addresses exceeds limit %d", len(addresses), MaxMultipleAccounts)
	}
	params := []interface{}{
		addresses,
		map[string]interface{}{
			"encoding":   "jsonParsed",
			"commitment": "confirmed",
		},
	}

	var result struct {
		Value []*AccountInfo `json:"value"`
	}
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}
	if len(result.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts: got %d accounts for %d addresses", len(result.Value), len(addresses))
	}
	return result.Value, nil
}

// GetTokenAccountBalance returns the balance of one token account.
func (c *HTTPClient) GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error) {
	var result struct {
		Value *TokenAmount `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountBalance", []interface{}{account}, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GetSlot returns the current slot.
func (c *HTTPClient) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.call(ctx, "getSlot", []interface{}{}, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// GetTokenSupply returns the total supply of a mint.
func (c *HTTPClient) GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error) {
	var result struct {
		Value *TokenAmount `json:"value"`
	}
	if err := c.call(ctx, "getTokenSupply", []interface{}{mint}, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

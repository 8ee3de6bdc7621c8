package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps replaces the backoff sleep and records requested waits.
func recordSleeps(waits *[]time.Duration) ClientOption {
	return WithSleeper(func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	})
}

func writeRPCResult(t *testing.T, w http.ResponseWriter, r *http.Request, result interface{}) {
	t.Helper()
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func newTestClient(t *testing.T, url string, opts ...ClientOption) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(url, url, "test-key", opts...)
	require.NoError(t, err)
	return c
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     uint64            `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getSignaturesForAddress", req.Method)
		require.Len(t, req.Params, 2)

		var cfg map[string]interface{}
		require.NoError(t, json.Unmarshal(req.Params[1], &cfg))
		assert.Equal(t, "sigB", cfg["before"])
		assert.Equal(t, float64(1000), cfg["limit"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []map[string]interface{}{
				{"signature": "sig1", "slot": 10, "blockTime": 1700000000, "err": nil},
				{"signature": "sig2", "slot": 9, "blockTime": nil, "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	sigs, err := client.GetSignaturesForAddress(context.Background(), "addr", &SignaturesOpts{Before: "sigB", Limit: 1000})
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, "sig1", sigs[0].Signature)
	require.NotNil(t, sigs[0].BlockTime)
	assert.Equal(t, int64(1700000000), *sigs[0].BlockTime)
	assert.Nil(t, sigs[0].Err)
	assert.Nil(t, sigs[1].BlockTime)
	assert.NotNil(t, sigs[1].Err)
}

func TestHTTPClient_RetryTransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeRPCResult(t, w, r, []interface{}{})
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server.URL, recordSleeps(&waits))

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(4), attempts.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}, waits)
}

func TestHTTPClient_RetryExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server.URL, recordSleeps(&waits))

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	require.Error(t, err)

	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(DefaultMaxRetries+1), attempts.Load())
	assert.Len(t, waits, DefaultMaxRetries)
}

func TestHTTPClient_RateLimitDoesNotConsumeRetryBudget(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 5 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeRPCResult(t, w, r, []interface{}{})
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server.URL, recordSleeps(&waits), WithMaxRetries(1))

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(6), attempts.Load())

	require.Len(t, waits, 5)
	for i, w := range waits {
		base := time.Second << i
		assert.GreaterOrEqual(t, w, base, "wait %d", i)
		assert.Less(t, w, base+500*time.Millisecond, "wait %d", i)
	}
}

func TestHTTPClient_RateLimitCeiling(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server.URL, recordSleeps(&waits), WithRateLimitRetries(2))

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	require.Error(t, err)

	var te *TransientError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.RateLimited())
	assert.Equal(t, int32(3), attempts.Load())
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "Invalid params"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	require.Error(t, err)

	var pe *PermanentError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, -32602, pe.Code)
	assert.Equal(t, "getSignaturesForAddress", pe.Op)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestHTTPClient_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, server.URL, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := client.GetSignaturesForAddress(ctx, "addr", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClient_GetMultipleAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRPCResult(t, w, r, map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"lamports": 2500000000,
					"owner":    "11111111111111111111111111111111",
					"data":     []string{"", "base64"},
				},
				nil,
				map[string]interface{}{
					"lamports": 1461600,
					"owner":    "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb",
					"data": map[string]interface{}{
						"program": "spl-token-2022",
						"parsed": map[string]interface{}{
							"type": "mint",
							"info": map[string]interface{}{
								"mintAuthority": "GT2zuHVaZQYZSyQMgJPLzvkmyztfyXg2NJunqFp4p3A4",
								"supply":        "1",
								"decimals":      0,
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	accounts, err := client.GetMultipleAccounts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.Equal(t, uint64(2500000000), accounts[0].Lamports)
	_, ok := accounts[0].Mint()
	assert.False(t, ok)

	assert.Nil(t, accounts[1])

	mint, ok := accounts[2].Mint()
	require.True(t, ok)
	require.NotNil(t, mint.MintAuthority)
	assert.Equal(t, "GT2zuHVaZQYZSyQMgJPLzvkmyztfyXg2NJunqFp4p3A4", *mint.MintAuthority)
}

func TestHTTPClient_GetMultipleAccountsLimit(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	_, err := client.GetMultipleAccounts(context.Background(), make([]string, MaxMultipleAccounts+1))
	assert.Error(t, err)
}

func TestHTTPClient_GetTokenAccountBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRPCResult(t, w, r, map[string]interface{}{
			"value": map[string]interface{}{
				"amount":         "1500000",
				"decimals":       6,
				"uiAmount":       1.5,
				"uiAmountString": "1.5",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bal, err := client.GetTokenAccountBalance(context.Background(), "vault")
	require.NoError(t, err)
	assert.Equal(t, 1.5, bal.UI())

	var nilAmount *TokenAmount
	assert.Equal(t, 0.0, nilAmount.UI())
}

func TestHTTPClient_GetSlot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRPCResult(t, w, r, 312456789)
	}))
	defer server.Close()

	slot, err := newTestClient(t, server.URL).GetSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(312456789), slot)
}

package solana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"skr-stats/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryDelay       = 500 * time.Millisecond
	DefaultMaxDelay         = 30 * time.Second
	DefaultRateLimitRetries = 8
	DefaultRateLimitDelay   = 1 * time.Second
	maxJitter               = 500 * time.Millisecond
)

// Retrier sends HTTP requests to the oracle with retry and backoff.
//
// A 429 waits 2^n seconds plus up to 500ms of jitter and does not consume the
// retry budget; it has its own ceiling. Other transient failures wait
// 2^attempt * retryDelay, up to maxRetries times. Permanent errors return
// immediately.
type Retrier struct {
	client           *http.Client
	maxRetries       int
	retryDelay       time.Duration
	maxDelay         time.Duration
	rateLimitRetries int
	rateLimitDelay   time.Duration
	limiter          *rate.Limiter
	sleep            func(ctx context.Context, d time.Duration) error
	jitter           func() time.Duration
	logger           *zap.Logger
	metrics          *observability.Metrics
}

// ClientOption configures a Retrier and the clients built on it.
type ClientOption func(*Retrier)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(r *Retrier) {
		r.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for non-429 failures.
func WithMaxRetries(n int) ClientOption {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(r *Retrier) {
		r.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(r *Retrier) {
		r.maxDelay = d
	}
}

// WithRateLimitRetries sets how many 429 answers are tolerated per call.
func WithRateLimitRetries(n int) ClientOption {
	return func(r *Retrier) {
		r.rateLimitRetries = n
	}
}

// WithRateLimitDelay sets the base wait after a 429.
func WithRateLimitDelay(d time.Duration) ClientOption {
	return func(r *Retrier) {
		r.rateLimitDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(r *Retrier) {
		r.client = client
	}
}

// WithRateLimiter caps the outbound request rate. rps <= 0 disables it.
func WithRateLimiter(rps float64) ClientOption {
	return func(r *Retrier) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSleeper replaces the backoff sleep, for tests.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(r *Retrier) {
		r.sleep = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(r *Retrier) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records call latency and retries.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(r *Retrier) {
		r.metrics = m
	}
}

// NewRetrier creates a Retrier.
func NewRetrier(opts ...ClientOption) *Retrier {
	r := &Retrier{
		client:           &http.Client{Timeout: DefaultTimeout},
		maxRetries:       DefaultMaxRetries,
		retryDelay:       DefaultRetryDelay,
		maxDelay:         DefaultMaxDelay,
		rateLimitRetries: DefaultRateLimitRetries,
		rateLimitDelay:   DefaultRateLimitDelay,
		sleep:            sleepContext,
		jitter: func() time.Duration {
			return rand.N(maxJitter)
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do sends the request built by newReq and hands a 2xx body to decode.
// newReq is invoked once per attempt. A decode error is retried unless it is a
// *PermanentError.
func (r *Retrier) Do(ctx context.Context, op string, newReq func(ctx context.Context) (*http.Request, error), decode func(body []byte) error) error {
	start := time.Now()
	attempt := 0
	limited := 0

	for {
		err := r.once(ctx, op, newReq, decode)
		if err == nil {
			r.metrics.RecordOracleCall(op, "ok", time.Since(start))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var te *TransientError
		if !errors.As(err, &te) {
			outcome := "error"
			if IsPermanent(err) {
				outcome = "permanent"
			}
			r.metrics.RecordOracleCall(op, outcome, time.Since(start))
			return err
		}

		var wait time.Duration
		if te.RateLimited() {
			if limited >= r.rateLimitRetries {
				r.metrics.RecordOracleCall(op, "rate_limited", time.Since(start))
				return fmt.Errorf("%s: rate limit retries exhausted: %w", op, err)
			}
			wait = r.rateLimitDelay<<limited + r.jitter()
			limited++
			r.metrics.RecordOracleRetry(op, "rate_limited")
		} else {
			if attempt >= r.maxRetries {
				r.metrics.RecordOracleCall(op, "transient", time.Since(start))
				return fmt.Errorf("%s: max retries exceeded: %w", op, err)
			}
			wait = r.retryDelay << attempt
			attempt++
			r.metrics.RecordOracleRetry(op, "transient")
		}
		if wait > r.maxDelay {
			wait = r.maxDelay
		}

		r.logger.Debug("retrying oracle call",
			zap.String("op", op),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt),
			zap.Int("rate_limited", limited),
			zap.Error(err),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *Retrier) once(ctx context.Context, op string, newReq func(ctx context.Context) (*http.Request, error), decode func([]byte) error) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := newReq(ctx)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("%s: http request: %w", op, scrub(err))}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s: read response: %w", op, err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s: rate limited", op)}
	case resp.StatusCode >= 500:
		return &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s: %s", op, truncate(body))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &PermanentError{Op: op, StatusCode: resp.StatusCode, Message: truncate(body)}
	}

	if err := decode(body); err != nil {
		if IsPermanent(err) {
			return err
		}
		return &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s: decode response: %w", op, err)}
	}
	return nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// scrub drops the request URL from transport errors so API keys passed as
// query parameters never reach logs.
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "price:"

type cachedPrice struct {
	Price   float64
	Fetched time.Time
}

// Cache is a two-level price cache in front of a Source. L1 is process-local;
// L2 is an optional Redis shared by every stage process.
type Cache struct {
	next   Source
	l1     *xsync.Map[string, cachedPrice]
	rdb    *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewCache wraps next. rdb may be nil.
func NewCache(next Source, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		next:   next,
		l1:     xsync.NewMap[string, cachedPrice](),
		rdb:    rdb,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Prices serves fresh cached prices and asks next for the rest in one call.
// Redis failures degrade to a miss.
func (c *Cache) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	mints = dedupe(mints)
	out := make(map[string]float64, len(mints))
	now := c.now()

	var missing []string
	for _, m := range mints {
		if p, ok := c.l1.Load(m); ok && now.Sub(p.Fetched) < c.ttl {
			out[m] = p.Price
			continue
		}
		missing = append(missing, m)
	}

	if len(missing) > 0 && c.rdb != nil {
		missing = c.fromRedis(ctx, missing, out, now)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.Prices(ctx, missing)
	for m, p := range fetched {
		out[m] = p
		c.l1.Store(m, cachedPrice{Price: p, Fetched: now})
	}
	if c.rdb != nil && len(fetched) > 0 {
		c.toRedis(ctx, fetched)
	}
	return out, err
}

func (c *Cache) fromRedis(ctx context.Context, mints []string, out map[string]float64, now time.Time) []string {
	keys := make([]string, len(mints))
	for i, m := range mints {
		keys[i] = redisKeyPrefix + m
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("redis price lookup failed", zap.Error(err))
		return mints
	}

	var missing []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, mints[i])
			continue
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			missing = append(missing, mints[i])
			continue
		}
		out[mints[i]] = p
		c.l1.Store(mints[i], cachedPrice{Price: p, Fetched: now})
	}
	return missing
}

func (c *Cache) toRedis(ctx context.Context, prices map[string]float64) {
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for m, p := range prices {
			pipe.Set(ctx, redisKeyPrefix+m, strconv.FormatFloat(p, 'f', -1, 64), c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("redis price store failed", zap.Error(err))
	}
}

// Len returns the number of L1 entries.
func (c *Cache) Len() int {
	return c.l1.Size()
}

// NewRedisClient connects to the Redis instance at rawURL.
func NewRedisClient(ctx context.Context, rawURL string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	if logger != nil {
		logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	}
	return rdb, nil
}

var errNoSource = errors.New("pricing: no source")

// Static is a fixed-price Source, used when no price API is configured and in
// tests.
type Static map[string]float64

// Prices returns the configured prices.
func (s Static) Prices(_ context.Context, mints []string) (map[string]float64, error) {
	if s == nil {
		return nil, errNoSource
	}
	out := make(map[string]float64)
	for _, m := range mints {
		if p, ok := s[m]; ok {
			out[m] = p
		}
	}
	return out, nil
}

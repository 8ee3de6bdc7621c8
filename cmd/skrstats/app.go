package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skr-stats/internal/config"
	"skr-stats/internal/observability"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/pricing"
	"skr-stats/internal/solana"
	"skr-stats/internal/storage"
	chstore "skr-stats/internal/storage/clickhouse"
	"skr-stats/internal/storage/migrations"
	pgstore "skr-stats/internal/storage/postgres"
)

const pushTimeout = 10 * time.Second

// app holds the process-wide resources shared by the stage commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgstore.Pool
	stores  storage.Stores
	metrics *observability.Metrics
	tracker *pipeline.Tracker

	oracle solana.Oracle
	ch     *chstore.Conn
	redis  *redis.Client
}

// newApp connects to Postgres and applies migrations. Oracle-backed
// resources are created lazily.
func newApp(ctx context.Context, rt *session) (*app, error) {
	pool, err := pgstore.NewPool(ctx, rt.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	if len(applied) > 0 {
		rt.logger.Info("postgres migrations applied", zap.Strings("files", applied))
	}

	metrics := observability.NewMetrics("", nil)
	stores := pgstore.NewStores(pool)
	return &app{
		cfg:     rt.cfg,
		logger:  rt.logger,
		pool:    pool,
		stores:  stores,
		metrics: metrics,
		tracker: pipeline.NewTracker(stores.Runs, metrics, rt.logger),
	}, nil
}

func (a *app) clientOptions() []solana.ClientOption {
	return []solana.ClientOption{
		solana.WithTimeout(a.cfg.RequestTimeout),
		solana.WithMaxRetries(a.cfg.MaxRetries),
		solana.WithRateLimiter(a.cfg.OracleRPS),
		solana.WithLogger(a.logger),
		solana.WithMetrics(a.metrics),
	}
}

func (a *app) getOracle() (solana.Oracle, error) {
	if a.oracle != nil {
		return a.oracle, nil
	}
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := solana.NewHTTPClient(a.cfg.RPCURL, a.cfg.APIURL, a.cfg.APIKey, a.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create oracle client: %w", err)
	}
	a.oracle = client
	return client, nil
}

// priceSource returns Jupiter behind the price cache, with Redis as L2 when
// configured. A Redis outage degrades to the in-process cache.
func (a *app) priceSource(ctx context.Context) pricing.Source {
	if a.redis == nil && a.cfg.RedisURL != "" {
		rdb, err := pricing.NewRedisClient(ctx, a.cfg.RedisURL, a.logger)
		if err != nil {
			a.logger.Warn("redis unavailable, using in-process price cache", zap.Error(err))
		} else {
			a.redis = rdb
		}
	}
	jup := pricing.NewJupiter(a.cfg.PriceURL, a.logger, a.clientOptions()...)
	return pricing.NewCache(jup, a.redis, a.cfg.PriceCacheTTL, a.logger)
}

func (a *app) market() *pricing.CoinGecko {
	return pricing.NewCoinGecko(a.cfg.MarketURL, a.logger, a.clientOptions()...)
}

// activitySink returns the ClickHouse audit sink, or nil when it is not
// configured or unreachable.
func (a *app) activitySink(ctx context.Context) storage.ActivitySampleSink {
	if a.cfg.ClickhouseDSN == "" {
		return nil
	}
	if a.ch == nil {
		conn, err := migrations.RunClickhouseMigrations(ctx, a.cfg.ClickhouseDSN)
		if err != nil {
			a.logger.Warn("clickhouse unavailable, activity samples not archived", zap.Error(err))
			return nil
		}
		a.ch = conn
	}
	return chstore.NewActivitySampleStore(a.ch)
}

// close pushes metrics and releases connections.
func (a *app) close(job string) error {
	var errs []error

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := a.metrics.Push(ctx, a.cfg.PushgatewayURL, job); err != nil {
		a.logger.Warn("metrics push failed", zap.Error(err))
	}

	if a.ch != nil {
		errs = append(errs, a.ch.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	a.pool.Close()
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

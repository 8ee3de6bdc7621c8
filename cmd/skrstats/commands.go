package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skr-stats/internal/activity"
	"skr-stats/internal/aggregate"
	"skr-stats/internal/discovery"
	"skr-stats/internal/domain"
	"skr-stats/internal/pipeline"
	"skr-stats/internal/scheduler"
	"skr-stats/internal/snapshot"
)

type stageName string

const (
	stageDiscover  stageName = domain.StageDiscover
	stageSnapshot  stageName = domain.StageSnapshot
	stageActivity  stageName = domain.StageActivity
	stageAggregate stageName = domain.StageAggregate
)

var stageHelp = map[stageName]string{
	stageDiscover:  "Discover genesis token holders and update the wallet registry",
	stageSnapshot:  "Record balances, holdings and token metrics for today",
	stageActivity:  "Scan a wallet sample and extrapolate today's activity",
	stageAggregate: "Build and publish the dashboard document",
}

// withApp builds the app for one command and always closes it.
func withApp(cmd *cobra.Command, job string, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	a, err := newApp(ctx, fromContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(job); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, "migrate", func(ctx context.Context, a *app) error {
				a.logger.Info("postgres schema up to date")
				if a.cfg.ClickhouseDSN != "" {
					if a.activitySink(ctx) == nil {
						return errors.New("clickhouse migrations failed")
					}
					a.logger.Info("clickhouse schema up to date")
				}
				return nil
			})
		},
	}
}

func stageCommand(name stageName) *cobra.Command {
	return &cobra.Command{
		Use:   string(name),
		Short: stageHelp[name],
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, string(name), func(ctx context.Context, a *app) error {
				return a.runStage(ctx, name)
			})
		},
	}
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every stage in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, "run", func(ctx context.Context, a *app) error {
				return a.runAll(ctx)
			})
		},
	}
}

func scheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run every stage on the configured cron schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, "schedule", func(ctx context.Context, a *app) error {
				s, err := scheduler.New(ctx, a.cfg.Schedule, a.runAll, a.logger)
				if err != nil {
					return err
				}
				s.Run(ctx)
				return nil
			})
		},
	}
}

// runAll runs the stages in dependency order. A failed stage does not stop
// the pass: discovery keeps the registry of its last good run and the
// aggregator republishes whatever the store holds.
func (a *app) runAll(ctx context.Context) error {
	var errs []error
	for _, name := range []stageName{stageDiscover, stageSnapshot, stageActivity, stageAggregate} {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := a.runStage(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// runStage records the stage in the run log. Wiring happens inside the
// tracked run, so a missing API key still leaves an error row.
func (a *app) runStage(ctx context.Context, name stageName) error {
	return a.tracker.Run(ctx, string(name), func(ctx context.Context, runID int64) (pipeline.Outcome, error) {
		fn, err := a.stageFunc(ctx, name)
		if err != nil {
			return pipeline.Outcome{}, err
		}
		return fn(ctx, runID)
	})
}

func (a *app) stageFunc(ctx context.Context, name stageName) (pipeline.StageFunc, error) {
	cfg := a.cfg
	logger := a.logger.With(zap.String("stage", string(name)))

	if name == stageAggregate {
		return aggregate.NewStage(a.stores, aggregate.Options{
			HistoryDays: cfg.HistoryDays,
			OutputPath:  cfg.DashboardOutput,
			Logger:      logger,
		}).Run, nil
	}

	oracle, err := a.getOracle()
	if err != nil {
		return nil, err
	}

	switch name {
	case stageDiscover:
		chain := discovery.DefaultChain(oracle, a.stores.Cursors, discovery.ChainOptions{
			GroupAddress:   cfg.Chain.GroupAddress,
			MintAuthority:  cfg.Chain.MintAuthority,
			TokenProgram:   cfg.Chain.TokenProgram,
			PageCap:        cfg.DiscoveryPageCap,
			ProgramPageCap: cfg.DiscoveryProgramPageCap,
			Logger:         logger,
		})
		return discovery.NewStage(chain, a.stores.Wallets, a.stores.Cursors, a.metrics, logger).Run, nil

	case stageSnapshot:
		return snapshot.NewStage(oracle, a.priceSource(ctx), a.market(), a.stores, snapshot.Options{
			BatchSize:          cfg.BatchSize,
			Concurrency:        cfg.MaxConcurrency,
			Delay:              cfg.BatchDelay,
			HoldingsSampleSize: cfg.HoldingsSampleSize,
			TokenMint:          cfg.Chain.TokenMint,
			WrappedSOLMint:     cfg.Chain.WrappedSOLMint,
			StakingVault:       cfg.Chain.StakingVault,
			MarketCoinID:       cfg.MarketCoinID,
			Logger:             logger,
			Metrics:            a.metrics,
		}).Run, nil

	case stageActivity:
		return activity.NewStage(oracle, a.stores, activity.Options{
			SampleSize:     cfg.ActivitySampleSize,
			SignatureLimit: cfg.ActivitySignatureLimit,
			Concurrency:    cfg.MaxConcurrency,
			Delay:          cfg.BatchDelay,
			Sink:           a.activitySink(ctx),
			Logger:         logger,
			Metrics:        a.metrics,
		}).Run, nil
	}
	return nil, fmt.Errorf("unknown stage %q", name)
}

// Command skrstats runs the wallet statistics pipeline stages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"skr-stats/internal/config"
	"skr-stats/internal/logging"
)

const programName = "skrstats"

var configFile string

// sessionKey carries the loaded config and logger through cobra's context.
type sessionKey struct{}

type session struct {
	cfg    *config.Config
	logger *zap.Logger
}

func fromContext(ctx context.Context) *session {
	rt, _ := ctx.Value(sessionKey{}).(*session)
	return rt
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Seeker wallet statistics pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = logger.With(zap.String("component", programName))

		if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof)); err != nil {
			return fmt.Errorf("set maxprocs: %w", err)
		}

		cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, &session{cfg: cfg, logger: logger}))
		return nil
	}

	rootCmd.AddCommand(
		migrateCommand(),
		stageCommand(stageDiscover),
		stageCommand(stageSnapshot),
		stageCommand(stageActivity),
		stageCommand(stageAggregate),
		runCommand(),
		scheduleCommand(),
		checkCommand(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		stop()
		os.Exit(1)
	}
}

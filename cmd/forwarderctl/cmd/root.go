// Package cmd provides the forwarderctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-llm-forwarder/config"
	"go.uber.org/zap"
)

var (
	envDir string
	cfg    *config.Config
	logger *zap.Logger
	// newLogger builds the command logger; tests swap in a no-op logger.
	newLogger = zap.NewProduction
)

var rootCmd = &cobra.Command{
	Use:           "forwarderctl",
	Short:         "Local tooling for the LLM request forwarder",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		if logger, err = newLogger(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		loaded, err := config.Init(envDir)
		if err != nil {
			return err
		}
		if len(loaded) > 0 {
			logger.Info("loaded env files", zap.Strings("files", loaded))
		}
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// cobra only fills a subcommand context while it is nil, so repeated runs would keep a stale one.
	for _, c := range rootCmd.Commands() {
		c.SetContext(ctx)
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", "", "directory holding .env.<FORWARDER_ENV> files (default ./config)")
}

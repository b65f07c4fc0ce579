package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/clueboard/internal/logging"
)

var logLevel *string

var rootCmd = &cobra.Command{
	Use:          "backfill",
	Short:        "backfill downloads archive games and writes them as JSON transcripts.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Stderr, *logLevel)
	},
}

func init() {
	logLevel = rootCmd.PersistentFlags().String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error).")
}

func ExecuteContext(ctx context.Context) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

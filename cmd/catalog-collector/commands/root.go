package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/maltedev/motor-catalog-collector/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "catalog-collector",
	Short:         "catalog-collector samples the motor catalog and collects specs, parts and drawings.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPipeline,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the collector config file.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error). Overrides LOG_LEVEL.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (json, text). Overrides LOG_FORMAT.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

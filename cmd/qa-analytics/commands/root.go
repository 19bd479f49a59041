package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/config"
	"qa-analytics/internal/logging"
	"qa-analytics/internal/snapshot"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "qa-analytics",
	Short: "QA-Analytics aggregates garment defect records into quality analytics",
	Long: `Aggregates garment-manufacturing defect records, joined with orders, fabrics, styles and wash
recipes, into ranked breakdowns, binned wash-parameter distributions, time series and cross-dimension
comparisons. Served over HTTP, as MCP tools on stdio, or as one-shot reports.

Running without a subcommand starts the MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Keep bootstrap debug lines quiet until the logger is configured.
		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logging.Init(verbose, cfg.LogDir); err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("QA-Analytics starting")
		return nil
	},
	RunE: runMCP,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd, mcpCmd, reportCmd, importCmd)
}

// openEngine opens the configured snapshot source, loads it and builds the
// engine over it. The returned close function releases the source.
func openEngine(ctx context.Context) (*analytics.Engine, *snapshot.Store, func(), error) {
	src, err := snapshot.OpenSource(ctx, cfg.Snapshot)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open snapshot source: %w", err)
	}
	closeFn := func() {
		if c, ok := src.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close snapshot source")
			}
		}
	}

	store := snapshot.NewStore(src)
	if err := store.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return analytics.NewEngine(store, cfg.EngineOptions()), store, closeFn, nil
}

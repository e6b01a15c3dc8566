package main

import (
	"fmt"

	"phonefinder/internal/app"
	"phonefinder/internal/config"
	"phonefinder/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	csvPath  string
	limit    int
	logLevel string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "phonefinder",
		Short: "Find smartphones from plain-language requests",
		Long: `phonefinder turns requests like "gaming phone under 20k with 8GB RAM"
into catalog filters. Use "search" for a single query or "chat" for a guided
conversation that asks for missing details.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.csvPath, "csv", "", "catalog CSV file (overrides CATALOG_* settings)")
	cmd.PersistentFlags().IntVarP(&opts.limit, "limit", "n", 0, "maximum number of results")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newSearchCmd(opts),
		newChatCmd(opts),
		newImportCmd(opts),
	)
	return cmd
}

// openApp loads configuration, applies flag overrides and builds the services
func openApp(cmd *cobra.Command, opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if opts.csvPath != "" {
		cfg.Catalog.Driver = config.CatalogCSV
		cfg.Catalog.CSVPath = opts.csvPath
	}
	if opts.limit > 0 {
		cfg.Search.DefaultLimit = opts.limit
		if cfg.Search.MaxLimit < opts.limit {
			cfg.Search.MaxLimit = opts.limit
		}
	}

	log := logger.New(logger.Config{
		Level:  opts.logLevel,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})
	return app.New(cmd.Context(), cfg, log)
}

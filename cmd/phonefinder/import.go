package main

import (
	"fmt"
	"os"

	"phonefinder/internal/repository"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load a catalog CSV into PostgreSQL",
		Long:  `Reads a catalog CSV, drops invalid and duplicate rows, and upserts the rest into the configured PostgreSQL catalog (CATALOG_DRIVER=postgres).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newUI(cmd.OutOrStdout())

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			catalog, dropped, err := repository.ParseCSVCatalog(file)
			if err != nil {
				return err
			}
			if dropped > 0 {
				out.Warning("Skipped %d invalid or duplicate rows", dropped)
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Search.ImportPhones(cmd.Context(), catalog.Phones())
			if err != nil {
				out.Error("Import failed: %v", err)
				return err
			}
			for _, e := range resp.Errors {
				out.Warning("%s", e)
			}
			out.Success("Imported %d phones (%d failed)", resp.Success, resp.Failed)
			return nil
		},
	}
}

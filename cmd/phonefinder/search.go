package main

import (
	"strings"

	"phonefinder/internal/model"
	"phonefinder/internal/service"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query without follow-up questions",
		Example: `  phonefinder search "samsung phone under 25000 with 8gb ram"
  phonefinder search --csv data/smartphones.csv -n 5 "compact camera phone"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := newUI(cmd.OutOrStdout())
			query := strings.Join(args, " ")

			resp, err := a.Search.Search(cmd.Context(), &model.SearchRequest{Query: query})
			if err != nil {
				out.Error("Search failed: %v", err)
				return err
			}

			if desc := service.Describe(resp.Filter); desc != "" {
				out.Info("Looking for %s", desc)
			}
			if !resp.Complete {
				out.Warning("The query is broad; add a budget or a brand for sharper results")
			}
			out.Results(resp.Results, resp.Total)
			return nil
		},
	}
}

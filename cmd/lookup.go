package main

import (
	"github.com/spf13/cobra"

	"github.com/markmdev/networking-copilot/internal/model"
)

var (
	lookupFirst   string
	lookupLast    string
	lookupContext string
	lookupSite    string
	lookupSearch  bool
)

var lookupCmd = &cobra.Command{
	Use:         "lookup",
	Short:       "Resolve and enrich a person by name",
	Annotations: withMode("lookup"),
	Example: `  networking-copilot lookup --first Tony --last Kipkemboi --context "company: CrewAI"
  networking-copilot lookup --first Tony --last Kipkemboi --search-only`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		q := model.SearchQuery{
			FirstName:         lookupFirst,
			LastName:          lookupLast,
			AdditionalContext: lookupContext,
			SiteOverride:      lookupSite,
		}
		if lookupSearch {
			sel, err := env.Pipeline.Search(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(sel)
		}

		out, err := env.Pipeline.Lookup(ctx, q)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupFirst, "first", "", "first name (required)")
	lookupCmd.Flags().StringVar(&lookupLast, "last", "", "last name (required)")
	lookupCmd.Flags().StringVar(&lookupContext, "context", "", "hints such as company, role or location")
	lookupCmd.Flags().StringVar(&lookupSite, "site", "", "directory base URL override")
	lookupCmd.Flags().BoolVar(&lookupSearch, "search-only", false, "search and select without fetching or enriching")
	_ = lookupCmd.MarkFlagRequired("first")
	_ = lookupCmd.MarkFlagRequired("last")
	rootCmd.AddCommand(lookupCmd)
}

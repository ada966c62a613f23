package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markmdev/networking-copilot/internal/store"
)

var recordsLimit int

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored enrichment results",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		recs, err := st.ListRecords(ctx, recordsLimit)
		if err != nil {
			return err
		}
		return printJSON(recs)
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetRecord(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var recordsBriefCmd = &cobra.Command{
	Use:   "brief <id>",
	Short: "Print a short summary of one stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetRecord(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(outputWriter, rec.Brief())
		return err
	},
}

func init() {
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", store.DefaultListLimit, "max records to list")
	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsBriefCmd)
	rootCmd.AddCommand(recordsCmd)
}

package main

import (
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:         "snapshot <profile-url>",
	Short:       "Fetch the raw profile snapshot for a URL",
	Annotations: withMode("snapshot"),
	Args:        cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "snapshot")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Pipeline.FetchSnapshot(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(snap)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var enrichFile string

var enrichCmd = &cobra.Command{
	Use:         "enrich",
	Short:       "Run the enrichment stages on a saved profile snapshot",
	Annotations: withMode("enrich"),
	Long: `Reads a profile snapshot (an object, or a list whose first element is used)
from --file or stdin and runs analysis, summary and icebreakers on it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		payload, err := readPayload(enrichFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Pipeline.Direct(ctx, payload)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichFile, "file", "", "snapshot JSON file (default stdin)")
	rootCmd.AddCommand(enrichCmd)
}

func readPayload(path string, stdin io.Reader) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "read snapshot")
	}
	return json.RawMessage(data), nil
}

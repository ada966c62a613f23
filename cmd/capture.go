package main

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var captureCmd = &cobra.Command{
	Use:         "capture <image>",
	Short:       "Resolve and enrich a person from a badge or card photo",
	Annotations: withMode("capture"),
	Args:        cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read image %s", path)
		}

		env, err := initPipeline(ctx, "capture")
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Pipeline.Capture(ctx, filepath.Base(path), data, contentTypeFor(path, data),
			func(percent int, message string) {
				zap.L().Info("capture progress", zap.Int("progress", percent), zap.String("message", message))
			})
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
}

// contentTypeFor guesses the media type from the extension, falling back
// to sniffing the bytes.
func contentTypeFor(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

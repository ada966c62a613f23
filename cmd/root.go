package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/config"
)

// modeAnnotation names the config mode a command validates against before
// it runs. Commands without one (records) only need the store settings.
const modeAnnotation = "config-mode"

var (
	cfg *config.Config

	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "networking-copilot",
	Short: "Resolve and enrich professional contacts",
	Long:  "Turns a badge photo or a typed name into a verified profile, a summary and conversation starters.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if logFormat != "" {
			c.Log.Format = logFormat
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		if err := validateFor(cmd, cfg); err != nil {
			return err
		}

		cmd.SilenceUsage = true
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// commandMode returns the config mode declared by cmd or its nearest parent.
func commandMode(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if mode, ok := c.Annotations[modeAnnotation]; ok {
			return mode
		}
	}
	return ""
}

// validateFor checks the settings the command's mode needs, so a missing
// key fails before any client is built.
func validateFor(cmd *cobra.Command, c *config.Config) error {
	mode := commandMode(cmd)
	if mode == "" {
		return nil
	}
	if err := c.Validate(mode); err != nil {
		return eris.Wrapf(err, "%s", cmd.CommandPath())
	}
	return nil
}

func withMode(mode string) map[string]string {
	return map[string]string{modeAnnotation: mode}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log.format (json, console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

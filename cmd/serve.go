package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/api"
	"github.com/markmdev/networking-copilot/internal/jobs"
)

var servePort int

const shutdownGrace = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Start the HTTP API",
	Annotations: withMode("serve"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		runner := jobs.NewRunner(env.Pipeline.Capture, cfg.Jobs.Workers)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: api.NewHandler(api.Deps{
				Pipeline:       env.Pipeline,
				Jobs:           runner,
				Records:        env.Store,
				CORSOrigins:    cfg.Server.CORSOrigins,
				MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
			if err := runner.Close(shutdownCtx); err != nil {
				zap.L().Warn("job runner shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Int("workers", cfg.Jobs.Workers))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

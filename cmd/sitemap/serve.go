package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/romangod6/kb-sitemap/internal/api"
	"github.com/romangod6/kb-sitemap/internal/utils"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sitemaps over HTTP and regenerate them periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		a.cfg.Watch(func(err error) {
			a.logger.Warn().Err(err).Msg("Invalid configuration change, using defaults")
		})

		handler := api.NewHandler(a.manager, a.store, a.logger)
		server := api.NewServer(port, handler)

		// Setup periodic regeneration
		ticker := time.NewTicker(a.cfg.GetRegenerateDuration())
		defer ticker.Stop()
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		go func() {
			for {
				select {
				case <-ticker.C:
					regenerate(ctx, handler, a.cfg.Sitemap.OutputPath, a.cfg.Sitemap.Backup, a.logger)
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			a.logger.Info().Int("port", port).Msg("Starting API server")
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				a.logger.Fatal().Err(err).Msg("Failed to start API server")
			}
		}()

		waitForShutdown(cancel, server, a.logger)
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "HTTP port (default from config)")
}

func regenerate(ctx context.Context, handler *api.Handler, path string, backup bool, logger *utils.Logger) {
	logger.Info().Msg("Starting periodic regeneration...")

	if _, err := handler.Reload(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to reload sitemaps from storage")
		return
	}
	if err := handler.Regenerate(path, backup); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to write sitemaps")
		return
	}

	logger.Info().Str("path", path).Msg("Regeneration completed")
}

func waitForShutdown(cancel context.CancelFunc, server *api.Server, logger *utils.Logger) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info().Msg("Shutting down...")
	cancel()

	// Graceful server shutdown
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down server")
	}
	logger.Info().Msg("Server shut down gracefully")
}

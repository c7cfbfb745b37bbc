package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for rendering and capture",
	Long: `Start an HTTP server exposing the card store, the renderer and a
capture WebSocket.

The server provides the following endpoints:
  GET    /health                 - Health check endpoint
  POST   /render                 - Render a payload as PNG
  GET    /cards                  - List cards
  POST   /cards                  - Create a card
  GET    /cards/{id}             - Get a card
  PUT    /cards/{id}             - Update a card
  DELETE /cards/{id}             - Delete a card
  GET    /cards/{id}/barcode.png - Render a card's barcode
  GET    /cards/export.pdf       - Export cards as PDF
  GET    /capture                - WebSocket capture session
  GET    /metrics                - Prometheus metrics

Examples:
  cardpanda serve
  cardpanda serve --port 8080
  cardpanda serve --host 0.0.0.0 --port 3000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Configuration from file, env and defaults, with CLI flag overrides.
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		maxBodyKB := cfg.Server.MaxBodyKB
		if cmd.Flags().Changed("max-body-kb") {
			maxBodyKB, _ = cmd.Flags().GetInt("max-body-kb")
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		rateLimit := cfg.Server.RateLimitPerMinute
		if cmd.Flags().Changed("rate-limit") {
			rateLimit, _ = cmd.Flags().GetInt("rate-limit")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}
		if timeout <= 0 {
			return fmt.Errorf("invalid timeout: %d (must be positive)", timeout)
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg)
		if err != nil {
			return err
		}

		srv, err := server.NewServer(server.Config{
			Host:               host,
			Port:               port,
			CORSOrigin:         corsOrigin,
			MaxBodyKB:          int64(maxBodyKB),
			TimeoutSec:         timeout,
			RateLimitPerMinute: rateLimit,
			PageSize:           cfg.Export.PageSize,
		}, store, renderer)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			BaseContext:       func(_ net.Listener) context.Context { return ctx },
		}

		go func() {
			slog.Info("Starting cardpanda server", "host", host, "port", port, "store", store.Path())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		err = httpServer.Shutdown(shutdownCtx)
		// Hijacked capture connections are not tracked by Shutdown; they end
		// with the base context.
		cancel()
		if err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
			return fmt.Errorf("shutdown: %w", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-body-kb", 64, "maximum JSON request body size in KB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Int("rate-limit", 0, "render and capture requests per minute per client (0 disables)")
}

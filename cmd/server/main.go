// ChefBud voice backend - relays live audio and text between browser
// clients and the realtime AI provider.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chefbud/voice-platform/internal/config"
	"github.com/chefbud/voice-platform/internal/server"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if !cfg.HasCredential() {
		slog.Warn("OPENAI_API_KEY not configured; sessions will be refused at handshake time")
	}

	srv := server.New(cfg)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Handler(),
		// No WriteTimeout: WebSocket sessions are long-lived.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("voice platform starting", "http", cfg.HTTPAddr, "model", cfg.Model)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	slog.Info("shutdown complete")
}

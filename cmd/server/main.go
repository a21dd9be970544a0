package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/devicebulk/internal/application"
	"github.com/JonMunkholm/devicebulk/internal/config"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_dir", cfg.Data.Dir,
		"root_table", cfg.Data.RootTable,
		"tie_break", cfg.Data.TieBreak,
		"settings_backend", cfg.Settings.Backend,
		"audit_db", cfg.Audit.URL != "",
	)

	ctx := context.Background()
	service, err := application.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	ws := service.WorkingSet()
	slog.Info("working set loaded", "root", ws.Root, "tables", len(ws.Names()))
	for _, w := range ws.Warnings {
		slog.Warn("working set warning", "warning", w)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for a running batch to finish (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for batch to complete", "active", status.Active)
		}
		if err := service.Close(shutdownCtx); err != nil {
			slog.Warn("service did not close cleanly", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}

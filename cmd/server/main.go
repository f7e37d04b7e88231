package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/JonMunkholm/orderenhancer/internal/core"
	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
	"github.com/JonMunkholm/orderenhancer/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	dialect, err := database.DialectFor(cfg.Database.Driver)
	if err != nil {
		slog.Error("unsupported database driver", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	querier, closeDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeDB()
	slog.Info("connected to database", "driver", dialect.Name(), "table_prefix", cfg.Database.TablePrefix)

	service, err := core.NewService(querier, dialect, cfg, core.Options{})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Background jobs stop when the server shuts down
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartExportCleanup(jobCtx, core.CleanupConfig{
		Retention:     cfg.Export.Retention,
		CheckInterval: cfg.Export.CleanupInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running exports finish writing their files
		if status := service.ExportLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for exports to complete", "active", status.Active)
			if err := service.WaitForExports(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			} else {
				slog.Info("all exports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

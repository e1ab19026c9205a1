package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/herdbook/internal/audit"
	"github.com/JonMunkholm/herdbook/internal/config"
	"github.com/JonMunkholm/herdbook/internal/core"
	_ "github.com/JonMunkholm/herdbook/internal/core/entities" // Register all entity types
	"github.com/JonMunkholm/herdbook/internal/database"
	"github.com/JonMunkholm/herdbook/internal/logging"
	"github.com/JonMunkholm/herdbook/internal/metrics"
	"github.com/JonMunkholm/herdbook/internal/metrics/promexport"
	"github.com/JonMunkholm/herdbook/internal/persist"
	"github.com/JonMunkholm/herdbook/internal/prefs"
	"github.com/JonMunkholm/herdbook/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	pool, err := database.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		slog.Info("schema applied")
	}

	store, closeStore, err := openPreferences(ctx, cfg.Preferences, pool)
	if err != nil {
		slog.Error("failed to open mapping preferences", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	defaultMode, err := core.ParseMode(cfg.Import.DefaultMode)
	if err != nil {
		slog.Error("invalid default mode", "error", err)
		os.Exit(1)
	}

	service := core.NewService(persist.NewPersister(pool), store, core.ServiceConfig{
		MaxInputBytes:     cfg.Import.MaxFileSize,
		Workers:           cfg.Import.Workers,
		MaxReportedErrors: cfg.Import.MaxReportedErrors,
		MaxConcurrent:     cfg.Import.MaxConcurrent,
		MaxWait:           cfg.Import.MaxWaitTime,
		Timeout:           cfg.Import.Timeout,
		PendingTTL:        cfg.Import.PendingTTL,
		DefaultMode:       defaultMode,
	})
	service.SetAuditLog(audit.NewPostgres(pool))
	slog.Info("entity types registered", "count", len(service.Entities()))

	var opts []web.Option
	if cfg.Metrics.Enabled {
		backend, err := promexport.New(true)
		if err != nil {
			slog.Error("failed to build metrics backend", "error", err)
			os.Exit(1)
		}
		metrics.SetBackend(backend)
		opts = append(opts, web.WithMetricsHandler(backend.Handler()))
	}

	server := web.NewServer(service, cfg, opts...)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartJanitor(jobCtx, cfg.Import.JanitorInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openPreferences builds the configured mapping preference store. The
// returned func releases it.
func openPreferences(ctx context.Context, cfg config.PreferencesConfig, pool *pgxpool.Pool) (core.PreferenceStore, func(), error) {
	switch cfg.Backend {
	case "postgres":
		return prefs.NewPostgres(pool), func() {}, nil
	case "sqlite":
		store, err := prefs.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		slog.Warn("mapping preferences are kept in memory and lost on restart")
		return prefs.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown preferences backend %q", cfg.Backend)
}

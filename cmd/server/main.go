package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/carbot/internal/catalog"
	"github.com/JonMunkholm/carbot/internal/config"
	"github.com/JonMunkholm/carbot/internal/core"
	_ "github.com/JonMunkholm/carbot/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/carbot/internal/database"
	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/JonMunkholm/carbot/internal/web"
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

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"query_distinct", cfg.Query.Distinct,
		"rate_limit", cfg.Server.RateLimit,
		"api_key_required", cfg.Security.RequireAPIKey,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()
	pool, err := database.Open(ctx, cfg.Database, database.RegisterJSONCodecs)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("tables registered", "count", core.TableCount())
	for _, def := range core.All() {
		slog.Debug("table", "name", def.Name, "columns", len(def.Columns))
	}

	service := catalog.NewService(core.NewExecutor(pool), catalog.Options{
		Distinct:    cfg.Query.Distinct,
		Timeout:     cfg.Query.Timeout,
		OffersLimit: cfg.Query.OffersLimit,
	})

	server := web.NewServer(service, pool, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	go pool.StartStatsReporter(jobCtx, cfg.Query.StatsInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		pool.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

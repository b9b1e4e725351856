package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/verdata/tabular/internal/apiclient"
	"github.com/verdata/tabular/internal/config"
	"github.com/verdata/tabular/internal/dbschema"
	"github.com/verdata/tabular/internal/formats"
	"github.com/verdata/tabular/internal/logging"
	"github.com/verdata/tabular/internal/web"
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
		"formats_dir", cfg.Formats.Dir,
		"database", cfg.Database.URL != "",
		"webhook", cfg.Webhook.URL != "",
	)

	ctx := context.Background()

	// The database is optional: without it the service still validates
	// files, only the schema introspection routes are disabled.
	var schema *dbschema.Schema
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = connectDatabase(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		schema = dbschema.New(pool)
	}

	store := formats.NewStore(cfg.Formats.Dir, cfg.Formats.CacheSize, cfg.Formats.CacheTTL)
	if names, err := store.Names(); err != nil {
		slog.Error("failed to list formats", "dir", cfg.Formats.Dir, "error", err)
		os.Exit(1)
	} else {
		slog.Info("formats available", "count", len(names), "names", strings.Join(names, ", "))
	}

	server := web.NewServer(store, schema, web.Options{
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})

	// Deliver every finished report to the webhook, when configured.
	if cfg.Webhook.URL != "" {
		notifier := apiclient.New(cfg.Webhook.URL, cfg.Webhook.Token, cfg.Webhook.Timeout)
		server.ReportDone.Connect(func(e web.ReportEvent) {
			go func() {
				if err := notifier.Post(context.Background(), "", e, nil); err != nil {
					slog.Warn("webhook delivery failed", "report_id", e.ReportID, "error", err)
				}
			}()
		})
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectDatabase builds the pgx pool from config and verifies the
// connection.
func connectDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/linkln33/garden-buddy-sub000/internal/config"
	"github.com/linkln33/garden-buddy-sub000/internal/importer"
	"github.com/linkln33/garden-buddy-sub000/internal/logging"
	"github.com/linkln33/garden-buddy-sub000/internal/store"
	"github.com/linkln33/garden-buddy-sub000/internal/web"
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
		"store_driver", cfg.Store.Driver,
		"import_workers", cfg.Import.Workers,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	imports := importer.NewService(st, importer.Options{
		Workers:       cfg.Import.Workers,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		CropCacheTTL:  cfg.Import.CropCacheTTL,
		RetainRuns:    cfg.Import.RetainRuns,
	})

	server := web.NewServer(imports, st, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight imports finish their writes so no product is left
		// without its dosage rows.
		if active := imports.ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := imports.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openStore builds the configured store backend. The returned cleanup
// closes backend resources and is safe to call once.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if strings.EqualFold(cfg.Store.Driver, "memory") {
		slog.Warn("using in-memory store, data will not survive restarts")
		return store.NewMemory(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Store.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Store.MaxConns)
	poolConfig.MinConns = int32(cfg.Store.MinConns)
	poolConfig.MaxConnLifetime = cfg.Store.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Store.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Store.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	return store.NewPostgres(pool), pool.Close, nil
}

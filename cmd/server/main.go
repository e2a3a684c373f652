package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/api"
	"github.com/abhinavmusrif/kinetic-os/internal/config"
	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/abhinavmusrif/kinetic-os/internal/store/postgres"
	"github.com/abhinavmusrif/kinetic-os/internal/store/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	st, cleanup, err := openStore(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer cleanup()

	app := api.NewApp(st, logger)

	dream := service.NewDreamCycle(app.Consolidator, logger, config.ConsolidationInterval())
	dream.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	dream.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func openStore(ctx context.Context, logger *zap.Logger) (*domain.Store, func(), error) {
	switch backend := config.MemoryBackend(); backend {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the postgres backend")
		}

		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return postgres.NewStore(pool), pool.Close, nil

	case "sqlite":
		db, err := sqlite.Open(config.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite database", zap.String("path", config.SQLitePath()))
		return sqlite.NewStore(db), func() { _ = db.Close() }, nil

	default:
		logger.Fatal("unknown memory backend", zap.String("backend", backend))
		return nil, nil, nil
	}
}

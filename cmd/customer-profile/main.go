package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxic/multi-odl-demo/internal/config"
	"github.com/voxic/multi-odl-demo/internal/handler"
	"github.com/voxic/multi-odl-demo/internal/logging"
	"github.com/voxic/multi-odl-demo/internal/middleware"
	"github.com/voxic/multi-odl-demo/internal/notify"
	"github.com/voxic/multi-odl-demo/internal/profile"
	"github.com/voxic/multi-odl-demo/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("customer-profile-service", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := repository.NewPostgresDB(connectCtx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	connectCancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	docs := repository.NewDocumentRepository(db)
	profiles := repository.NewProfileRepository(db)
	builder := profile.NewBuilder(docs, profile.DefaultClassifier, cfg.TxRecentLimit, slog.Default())

	build := func(ctx context.Context, customerID int64) error {
		built, err := builder.Build(ctx, customerID)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(built)
		if err != nil {
			return fmt.Errorf("marshal profile for customer %d: %w", customerID, err)
		}
		return profiles.Upsert(ctx, customerID, raw)
	}

	agg := profile.NewAggregator(build, docs, cfg.BuildQueueSize,
		time.Duration(cfg.SweepDelayMS)*time.Millisecond,
		time.Duration(cfg.SweepIntervalS)*time.Second,
		slog.Default(),
	)
	agg.Start(ctx)

	listener := notify.NewListener(cfg.DatabaseURL, docs, agg, slog.Default())
	if err := listener.Start(ctx); err != nil {
		slog.Error("failed to start change listener", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	health := handler.NewHealthHandler(db, agg)
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	handler.NewProfileHandler(agg, profiles, docs).Routes(mux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Tracing(middleware.Logging(middleware.Recovery(mux))),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

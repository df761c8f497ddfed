package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/voxic/multi-odl-demo/internal/config"
	"github.com/voxic/multi-odl-demo/internal/envelope"
	"github.com/voxic/multi-odl-demo/internal/handler"
	"github.com/voxic/multi-odl-demo/internal/logging"
	"github.com/voxic/multi-odl-demo/internal/middleware"
	"github.com/voxic/multi-odl-demo/internal/notify"
	"github.com/voxic/multi-odl-demo/internal/profile"
	"github.com/voxic/multi-odl-demo/internal/repository"
	"github.com/voxic/multi-odl-demo/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		slog.Error("REDIS_ADDR is required for the agreement profile service")
		os.Exit(1)
	}

	logging.Init("agreement-profile-service", cfg.LogLevel, cfg.AppEnv)

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

	rdb, err := stream.NewClient(cfg.RedisAddr)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	docs := repository.NewDocumentRepository(db)
	builder := profile.NewAgreementBuilder(docs, slog.Default())
	producer := stream.NewProducer(rdb, cfg.OutputStream)

	build := func(ctx context.Context, customerID int64) error {
		built, err := builder.Build(ctx, customerID)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(built)
		if err != nil {
			return fmt.Errorf("marshal profile for customer %d: %w", customerID, err)
		}
		return producer.Publish(ctx, strconv.FormatInt(customerID, 10), raw)
	}

	agg := profile.NewAggregator(build, docs, cfg.BuildQueueSize,
		time.Duration(cfg.SweepDelayMS)*time.Millisecond,
		time.Duration(cfg.SweepIntervalS)*time.Second,
		slog.Default(),
	)
	agg.Start(ctx)

	hostname, _ := os.Hostname()
	consumer := stream.NewConsumer(rdb, cfg.InputStream, cfg.ConsumerGroup, hostname, slog.Default())
	err = consumer.Start(ctx, func(ctx context.Context, key string, payload []byte) {
		var doc envelope.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			slog.Warn("malformed stream message", "key", key, "error", err)
			return
		}
		customerID, err := notify.DeriveCustomerID(ctx, doc, docs)
		if err != nil {
			slog.Warn("dropping stream message", "key", key, "error", err)
			return
		}
		agg.Enqueue(customerID)
	})
	if err != nil {
		slog.Error("failed to start stream consumer", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	health := handler.NewHealthHandler(handler.PingFunc(func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	}), agg)
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	handler.NewAgreementHandler(agg, builder).Routes(mux)

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

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pacificfuels/lcfs-backend/internal/creditledger"
	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
	"github.com/pacificfuels/lcfs-backend/pkg/metrics"
	"github.com/pacificfuels/lcfs-backend/pkg/migrate"
	"github.com/pacificfuels/lcfs-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "refresh-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "refresh-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ledgerSvc, err := creditledger.NewService(creditledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create credit ledger service", err)
		os.Exit(1)
	}
	refresher, err := creditledger.NewRefresher(
		ledgerSvc,
		organizations.NewRepository(dbClient.DB()),
		redisClient,
		metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		logg,
		creditledger.RefresherOptions{
			LockTTL:     cfg.Refresh.LockTTL,
			MaxAttempts: cfg.Refresh.MaxRetries,
			BaseBackoff: cfg.Refresh.BaseBackoff,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create refresher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Refresh.Interval.String(),
	})
	logg.Info(ctx, "starting refresh worker")

	if err := run(ctx, refresher, cfg.Refresh.Interval, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "refresh worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "refresh worker shutting down gracefully")
}

func run(ctx context.Context, refresher *creditledger.Refresher, interval time.Duration, logg *logger.Logger) error {
	if interval <= 0 {
		interval = time.Minute
	}

	if err := refresher.RunOnce(ctx); err != nil {
		logg.Error(ctx, "credit ledger sweep failed", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := refresher.RunOnce(ctx); err != nil {
				logg.Error(ctx, "credit ledger sweep failed", err)
			}
		}
	}
}

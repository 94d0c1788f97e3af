package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/cron"
	"github.com/gigdesk/gigdesk-backend/internal/identity"
	"github.com/gigdesk/gigdesk-backend/internal/shop"
	"github.com/gigdesk/gigdesk-backend/internal/watchlist"
	"github.com/gigdesk/gigdesk-backend/pkg/config"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/logger"
	"github.com/gigdesk/gigdesk-backend/pkg/metrics"
	"github.com/gigdesk/gigdesk-backend/pkg/migrate"
	"github.com/gigdesk/gigdesk-backend/pkg/redis"
)

const lockKeyFormat = "gd:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	purchaseJob, err := cron.NewPurchaseExpiryJob(cron.PurchaseExpiryJobParams{
		Logger:  logg,
		DB:      dbClient,
		Repo:    func(tx *gorm.DB) cron.PurchaseExpirer { return shop.NewRepository(tx) },
		Metrics: metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase expiry job", err)
		os.Exit(1)
	}

	watchlistJob, err := cron.NewWatchlistCleanupJob(cron.WatchlistCleanupJobParams{
		Logger:  logg,
		DB:      dbClient,
		Repo:    func(tx *gorm.DB) cron.WatchlistPruner { return watchlist.NewRepository(tx) },
		Metrics: metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create watchlist cleanup job", err)
		os.Exit(1)
	}

	tokenJob, err := cron.NewTokenCleanupJob(cron.TokenCleanupJobParams{
		Logger:    logg,
		DB:        dbClient,
		Repo:      func(tx *gorm.DB) cron.TokenPruner { return identity.NewRepository(tx) },
		Metrics:   metricsCollector,
		Retention: time.Duration(cfg.Cron.TokenRetentionDays) * 24 * time.Hour,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create token cleanup job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(purchaseJob, watchlistJob, tokenJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

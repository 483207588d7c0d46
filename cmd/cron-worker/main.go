package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neture-platform/relay-backend/internal/cron"
	"github.com/neture-platform/relay-backend/internal/relay"
	"github.com/neture-platform/relay-backend/internal/settlement"
	"github.com/neture-platform/relay-backend/pkg/config"
	"github.com/neture-platform/relay-backend/pkg/db"
	"github.com/neture-platform/relay-backend/pkg/enums"
	"github.com/neture-platform/relay-backend/pkg/logger"
	"github.com/neture-platform/relay-backend/pkg/metrics"
	"github.com/neture-platform/relay-backend/pkg/migrate"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/redis"
)

const lockKeyFormat = "ntr:cron-worker:lock:%s"

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

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outboxRepo, logg)
	settlementSvc, err := settlement.NewService(
		settlement.NewRepository(dbClient.DB()),
		settlement.NewCommissionRepository(dbClient.DB()),
		relay.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	billingUnit, err := enums.ParseBillingUnit(cfg.Settlement.DefaultBillingUnit)
	if err != nil {
		logg.Error(context.Background(), "invalid default billing unit", err)
		os.Exit(1)
	}

	closeJob, err := cron.NewSettlementCloseJob(cron.SettlementCloseJobParams{
		Logger:      logg,
		Settlements: settlementSvc,
		PeriodDays:  cfg.Settlement.PeriodDays,
		BillingUnit: billingUnit,
		Currency:    enums.Currency(cfg.Settlement.DefaultCurrency),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement close job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(closeJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
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

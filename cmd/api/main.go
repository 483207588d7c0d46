package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neture-platform/relay-backend/api/routes"
	"github.com/neture-platform/relay-backend/internal/audit"
	"github.com/neture-platform/relay-backend/internal/channels"
	"github.com/neture-platform/relay-backend/internal/importguard"
	"github.com/neture-platform/relay-backend/internal/relay"
	"github.com/neture-platform/relay-backend/internal/settlement"
	"github.com/neture-platform/relay-backend/pkg/config"
	"github.com/neture-platform/relay-backend/pkg/db"
	"github.com/neture-platform/relay-backend/pkg/logger"
	"github.com/neture-platform/relay-backend/pkg/metrics"
	"github.com/neture-platform/relay-backend/pkg/migrate"
	"github.com/neture-platform/relay-backend/pkg/outbox"
	"github.com/neture-platform/relay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	importMetrics := metrics.NewImportMetrics(registry)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	auditSvc, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}
	channelRepo := channels.NewRepository(dbClient.DB())
	channelSvc, err := channels.NewService(channelRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create channel service", err)
		os.Exit(1)
	}
	relayRepo := relay.NewRepository(dbClient.DB())
	relaySvc, err := relay.NewService(relayRepo, dbClient, outboxSvc, auditSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create relay service", err)
		os.Exit(1)
	}
	importSvc, err := importguard.NewService(
		relayRepo,
		channelRepo,
		dbClient,
		outboxSvc,
		auditSvc,
		importMetrics,
		cfg.Relay.RetryCeiling,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create import service", err)
		os.Exit(1)
	}
	settlementSvc, err := settlement.NewService(
		settlement.NewRepository(dbClient.DB()),
		settlement.NewCommissionRepository(dbClient.DB()),
		relayRepo,
		dbClient,
		outboxSvc,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Channels:    channelSvc,
			Imports:     importSvc,
			Relays:      relaySvc,
			Audit:       auditSvc,
			Settlements: settlementSvc,
			Metrics:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

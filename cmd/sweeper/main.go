package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hauler-backend/internal/notifications"
	"github.com/angelmondragon/hauler-backend/internal/sweeper"
	"github.com/angelmondragon/hauler-backend/pkg/config"
	"github.com/angelmondragon/hauler-backend/pkg/db"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/angelmondragon/hauler-backend/pkg/redis"
)

const metricsAddrEnv = "HAULER_SWEEPER_METRICS_ADDR"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "sweeper"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "sweeper"

	logg = logger.New(logger.Options{
		ServiceName: "sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	defer func() {
		if closeErr := multierr.Combine(redisClient.Close(), dbClient.Close()); closeErr != nil {
			logg.Error(ctx, "failed to close sweeper resources", closeErr)
		}
	}()

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())

	notificationJob, err := sweeper.NewRetentionJob("notification-cleanup", cfg.Sweeper.NotificationRetention, notificationsRepo.DeleteReadBefore, logg)
	requireResource(ctx, logg, "notification cleanup job", err)
	outboxJob, err := sweeper.NewRetentionJob("outbox-retention", cfg.Sweeper.OutboxRetention, outboxRepo.DeletePublishedBefore, logg)
	requireResource(ctx, logg, "outbox retention job", err)

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := sweeper.NewRedisLock(redisClient, redisClient.LockKey("sweeper:"+env), cfg.Sweeper.Interval)
	requireResource(ctx, logg, "sweeper lock", err)

	reg := prometheus.NewRegistry()
	service, err := sweeper.NewService(sweeper.ServiceParams{
		Logger:   logg,
		Registry: sweeper.NewRegistry(notificationJob, outboxJob),
		Lock:     lock,
		Metrics:  metrics.New(reg),
		Interval: cfg.Sweeper.Interval,
	})
	requireResource(ctx, logg, "sweeper service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Sweeper.Interval.String(),
	})

	if addr := os.Getenv(metricsAddrEnv); addr != "" {
		metricsServer := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(runCtx, "sweeper metrics server stopped", err)
			}
		}()
		defer func() { _ = metricsServer.Close() }()
	}

	logg.Info(runCtx, "sweeper ready")
	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "sweeper failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(runCtx, "sweeper shutting down")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

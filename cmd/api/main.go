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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hauler-backend/api/routes"
	"github.com/angelmondragon/hauler-backend/internal/auth"
	"github.com/angelmondragon/hauler-backend/internal/cart"
	"github.com/angelmondragon/hauler-backend/internal/checkout"
	"github.com/angelmondragon/hauler-backend/internal/notifications"
	"github.com/angelmondragon/hauler-backend/internal/orders"
	product "github.com/angelmondragon/hauler-backend/internal/products"
	"github.com/angelmondragon/hauler-backend/internal/users"
	"github.com/angelmondragon/hauler-backend/pkg/auth/session"
	"github.com/angelmondragon/hauler-backend/pkg/config"
	"github.com/angelmondragon/hauler-backend/pkg/db"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
	"github.com/angelmondragon/hauler-backend/pkg/migrate"
	"github.com/angelmondragon/hauler-backend/pkg/outbox"
	"github.com/angelmondragon/hauler-backend/pkg/pubsub"
	"github.com/angelmondragon/hauler-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	defer func() {
		closeErr := multierr.Combine(pubsubClient.Close(), redisClient.Close(), dbClient.Close())
		if closeErr != nil {
			logg.Error(ctx, "failed to close api resources", closeErr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "auth service", err)

	productService, err := product.NewService(product.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "product service", err)

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	requireResource(ctx, logg, "cart store", err)

	taxPercent, err := cfg.Checkout.TaxPercent()
	requireResource(ctx, logg, "tax percent", err)

	cartService, err := cart.NewService(cartStore, productService, cart.NewLogNotifier(logg, m), taxPercent)
	requireResource(ctx, logg, "cart service", err)

	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(cartStore, ordersRepo, dbClient, emitter, m, logg)
	requireResource(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(ordersRepo, dbClient, emitter, m, logg)
	requireResource(ctx, logg, "orders service", err)

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "notification service", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:             dbClient,
		PubSub:         pubsubClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Auth:           authService,
		Products:       productService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         ordersService,
		Notifications:  notificationService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			stop()
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

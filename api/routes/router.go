package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hauler-backend/api/controllers"
	"github.com/angelmondragon/hauler-backend/api/middleware"
	"github.com/angelmondragon/hauler-backend/internal/auth"
	"github.com/angelmondragon/hauler-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/hauler-backend/internal/checkout"
	"github.com/angelmondragon/hauler-backend/internal/notifications"
	"github.com/angelmondragon/hauler-backend/internal/orders"
	product "github.com/angelmondragon/hauler-backend/internal/products"
	"github.com/angelmondragon/hauler-backend/pkg/auth/session"
	"github.com/angelmondragon/hauler-backend/pkg/config"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
	"github.com/angelmondragon/hauler-backend/pkg/metrics"
	"github.com/angelmondragon/hauler-backend/pkg/redis"
)

// Dependencies are the services and dependencies the HTTP surface is built from.
type Dependencies struct {
	DB             controllers.Pinger
	PubSub         controllers.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	Auth          auth.Service
	Products      product.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.Metrics),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	idempotency := middleware.Idempotency(deps.Redis, middleware.IdempotencyOptions{
		CriticalTTL: cfg.Checkout.IdempotencyTTL,
	}, logg)

	checks := map[string]controllers.Pinger{"db": deps.DB, "redis": deps.Redis}
	if deps.PubSub != nil {
		checks["pubsub"] = deps.PubSub
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, checks, logg))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(idempotency).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(idempotency)

		r.Get("/products", controllers.ListCatalog(deps.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.With(middleware.RequireRole(enums.UserRoleSupplier, logg)).
				Patch("/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/supplier", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleSupplier, logg))
			r.Get("/products", controllers.SupplierListProducts(deps.Products, logg))
			r.Post("/products", controllers.SupplierCreateProduct(deps.Products, logg))
			r.Patch("/products/{productId}", controllers.SupplierUpdateProduct(deps.Products, logg))
			r.Delete("/products/{productId}", controllers.SupplierDeleteProduct(deps.Products, logg))
			r.Get("/clients", controllers.SupplierClients(deps.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleClient, logg))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		})
	})

	return r
}

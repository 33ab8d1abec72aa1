package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/warung-pos/api/controllers"
	"github.com/angelmondragon/warung-pos/api/middleware"
	"github.com/angelmondragon/warung-pos/internal/events"
	product "github.com/angelmondragon/warung-pos/internal/products"
	"github.com/angelmondragon/warung-pos/internal/settings"
	"github.com/angelmondragon/warung-pos/internal/transactions"
	"github.com/angelmondragon/warung-pos/pkg/config"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/angelmondragon/warung-pos/pkg/metrics"
	pkgredis "github.com/angelmondragon/warung-pos/pkg/redis"
)

// Services are the collaborators mounted by the router. Idempotency and
// Limiter are optional; leave them nil when redis is not configured.
type Services struct {
	Readiness    map[string]controllers.Pinger
	Products     product.Service
	Carts        controllers.CartRegistry
	Transactions transactions.Service
	Settings     settings.Service
	Events       events.Subscriber
	Idempotency  pkgredis.IdempotencyStore
	Limiter      middleware.WindowLimiter
	Gatherer     prometheus.Gatherer
	Location     *time.Location
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	printPolicy := middleware.NewRateLimitPolicy("print", cfg.HTTP.PrintRateWindow, cfg.HTTP.PrintRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Readiness))
	})
	if svc.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(svc.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(svc.Idempotency, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.Post("/", controllers.ProductCreate(svc.Products, logg))
			r.Get("/categories", controllers.ProductCategories(svc.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(svc.Products, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(svc.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svc.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svc.Carts, logg))
			r.Delete("/", controllers.CartClear(svc.Carts, logg))
			r.Post("/items", controllers.CartAdd(svc.Carts, svc.Products, logg))
			r.Post("/items/{productId}/decrease", controllers.CartDecrease(svc.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(svc.Carts, logg))
		})

		r.Post("/checkout", controllers.Checkout(svc.Transactions, cfg.FeatureFlags.AutoPrint, logg))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionList(svc.Transactions, svc.Location, logg))
			r.Get("/{id}", controllers.TransactionGet(svc.Transactions, logg))
			r.Get("/{id}/receipt", controllers.TransactionReceipt(svc.Transactions, logg))
			r.With(middleware.RateLimit(printPolicy, svc.Limiter, logg)).
				Post("/{id}/print", controllers.TransactionPrint(svc.Transactions, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/store", controllers.StoreSettingsGet(svc.Settings, logg))
			r.Put("/store", controllers.StoreSettingsUpdate(svc.Settings, logg))
		})

		if svc.Events != nil {
			r.Get("/events", controllers.EventStream(svc.Events, logg))
		}
	})

	return r
}

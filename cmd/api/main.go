package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/warung-pos/api"
	"github.com/angelmondragon/warung-pos/api/controllers"
	"github.com/angelmondragon/warung-pos/api/middleware"
	"github.com/angelmondragon/warung-pos/api/routes"
	"github.com/angelmondragon/warung-pos/internal/cart"
	"github.com/angelmondragon/warung-pos/internal/events"
	product "github.com/angelmondragon/warung-pos/internal/products"
	"github.com/angelmondragon/warung-pos/internal/receipt"
	"github.com/angelmondragon/warung-pos/internal/settings"
	"github.com/angelmondragon/warung-pos/internal/transactions"
	"github.com/angelmondragon/warung-pos/pkg/config"
	"github.com/angelmondragon/warung-pos/pkg/db"
	"github.com/angelmondragon/warung-pos/pkg/instance"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/angelmondragon/warung-pos/pkg/metrics"
	"github.com/angelmondragon/warung-pos/pkg/migrate"
	"github.com/angelmondragon/warung-pos/pkg/pubsub"
	"github.com/angelmondragon/warung-pos/pkg/redis"
)

// eventBus is the live feed backend: redis when configured, else in process.
type eventBus interface {
	events.Publisher
	events.Subscriber
}

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.Open(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{"database": dbClient}

	var (
		carts       *cart.Registry
		broker      eventBus
		idempotency redis.IdempotencyStore
		limiter     middleware.WindowLimiter
	)
	if cfg.Redis.Configured() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient
		carts = cart.NewRedisRegistry(redisClient, logg)
		broker = events.NewRedisBroker(redisClient, cfg.Events.Channel, logg)
		idempotency = redisClient
		limiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured: carts and events stay in memory, idempotency and rate limits are off")
		carts = cart.NewRegistry(nil, logg)
		broker = events.NewLocalBroker()
	}

	publishers := events.MultiPublisher{broker}
	if cfg.PubSub.Enabled(cfg.GCP) {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		readiness["pubsub"] = psClient
		publishers = append(publishers, events.NewPubSubPublisher(psClient.EventsPublisher()))
	}
	feed := events.NewFeed(publishers, logg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	posMetrics := metrics.NewPOSMetrics(registry)

	productService, err := product.NewService(product.NewRepository(dbClient.DB()), feed)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}
	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()), feed)
	if err != nil {
		logg.Error(ctx, "failed to create settings service", err)
		os.Exit(1)
	}

	loc := cfg.Receipt.Location()
	sink, err := receipt.NewSinkFromConfig(cfg.Printer)
	if err != nil {
		logg.Error(ctx, "failed to configure printer", err)
		os.Exit(1)
	}
	printer, err := receipt.NewPrinter(
		receipt.NewFormatter(cfg.Receipt.StoreName, cfg.Receipt.Subtitle, cfg.Receipt.Width, loc),
		sink,
		posMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create receipt printer", err)
		os.Exit(1)
	}

	transactionService, err := transactions.NewService(transactions.Deps{
		Repo:     transactions.NewRepository(dbClient.DB()),
		Carts:    carts,
		Printer:  printer,
		Metrics:  posMetrics,
		Feed:     feed,
		Logger:   logg,
		Location: loc,
	})
	if err != nil {
		logg.Error(ctx, "failed to create transaction service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, logg, routes.Services{
		Readiness:    readiness,
		Products:     productService,
		Carts:        carts,
		Transactions: transactionService,
		Settings:     settingsService,
		Events:       broker,
		Idempotency:  idempotency,
		Limiter:      limiter,
		Gatherer:     registry,
		Location:     loc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"addr":    addr,
		"printer": printer.SinkName(),
		"dialect": dbClient.Dialect(),
	})
	logg.Info(serverCtx, "starting api server")

	if err := api.Serve(serverCtx, api.NewServer(addr, handler), cfg.HTTP.ShutdownTimeout, logg); err != nil {
		logg.Error(serverCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shopcart-backend/api/controllers"
	"github.com/angelmondragon/shopcart-backend/api/routes"
	"github.com/angelmondragon/shopcart-backend/internal/auth"
	"github.com/angelmondragon/shopcart-backend/internal/cart"
	"github.com/angelmondragon/shopcart-backend/internal/catalog"
	"github.com/angelmondragon/shopcart-backend/internal/users"
	"github.com/angelmondragon/shopcart-backend/pkg/config"
	"github.com/angelmondragon/shopcart-backend/pkg/db"
	"github.com/angelmondragon/shopcart-backend/pkg/instance"
	"github.com/angelmondragon/shopcart-backend/pkg/lock"
	"github.com/angelmondragon/shopcart-backend/pkg/logger"
	"github.com/angelmondragon/shopcart-backend/pkg/metrics"
	"github.com/angelmondragon/shopcart-backend/pkg/migrate"
	"github.com/angelmondragon/shopcart-backend/pkg/mongo"
	"github.com/angelmondragon/shopcart-backend/pkg/redis"
	"github.com/angelmondragon/shopcart-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

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

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.New(runCtx, cfg.Mongo, logg)
	if err != nil {
		logg.Error(runCtx, "failed to bootstrap mongo", err)
		os.Exit(1)
	}

	dbClient, err := db.New(runCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(runCtx, "failed to bootstrap database", err)
		_ = mongoClient.Close(context.Background())
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(runCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(runCtx, "failed to bootstrap redis", err)
			_ = closeAll(context.Background(), mongoClient, dbClient, nil)
			os.Exit(1)
		}
	}

	handler, err := buildHandler(runCtx, cfg, logg, mongoClient, dbClient, redisClient)
	if err != nil {
		logg.Error(runCtx, "failed to wire api", err)
		_ = closeAll(context.Background(), mongoClient, dbClient, redisClient)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"instance":      instance.GetID(),
		"db_driver":     cfg.DB.Driver,
		"redis_enabled": redisClient != nil,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := multierr.Combine(
		server.Shutdown(shutdownCtx),
		closeAll(shutdownCtx, mongoClient, dbClient, redisClient),
	); err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func buildHandler(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	mongoClient *mongo.Client,
	dbClient *db.Client,
	redisClient *redis.Client,
) (http.Handler, error) {
	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return nil, err
	}

	itemsRepo := catalog.NewRepository(mongoClient.Collection(mongo.CollectionItems))
	if err := itemsRepo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	cartRepo := cart.NewMongoRepository(mongoClient.Collection(mongo.CollectionCarts))
	if err := cartRepo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	readiness := []controllers.Dependency{
		{Name: "mongo", Pinger: mongoClient},
		{Name: "sql", Pinger: dbClient},
	}

	var (
		locker      lock.Locker
		rateLimiter redis.RateLimiter
	)
	if redisClient != nil {
		redisLocker, err := lock.NewRedis(redisClient, redisClient.CartLockKey, cfg.Cart.LockTTL, cfg.Cart.LockWait)
		if err != nil {
			return nil, err
		}
		locker = redisLocker
		rateLimiter = redisClient
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis not configured; cart locks are in-process and auth rate limiting is off")
		locker = lock.NewLocal(cfg.Cart.LockWait)
	}

	catalogService, err := catalog.NewService(itemsRepo)
	if err != nil {
		return nil, err
	}

	cartService, err := cart.NewService(cartRepo, itemsRepo, locker, metrics.NewCartMetrics(registry), logg)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  users.NewRepository(dbClient.DB()),
		Hasher:    security.NewHasher(cfg.Password),
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(
		cfg,
		logg,
		registry,
		metrics.NewHTTPMetrics(registry),
		readiness,
		rateLimiter,
		authService,
		catalogService,
		cartService,
	), nil
}

func closeAll(ctx context.Context, mongoClient *mongo.Client, dbClient *db.Client, redisClient *redis.Client) error {
	var err error
	if mongoClient != nil {
		err = multierr.Append(err, mongoClient.Close(ctx))
	}
	if dbClient != nil {
		err = multierr.Append(err, dbClient.Close())
	}
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	return err
}

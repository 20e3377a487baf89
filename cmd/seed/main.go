package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/shopcart-backend/internal/catalog"
	"github.com/angelmondragon/shopcart-backend/pkg/config"
	"github.com/angelmondragon/shopcart-backend/pkg/logger"
	"github.com/angelmondragon/shopcart-backend/pkg/mongo"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"database": cfg.Mongo.Database,
	})

	mongoClient, err := mongo.New(ctx, cfg.Mongo, logg)
	requireResource(ctx, logg, "mongo", err)
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(ctx, "error closing mongo", err)
		}
	}()

	repo := catalog.NewRepository(mongoClient.Collection(mongo.CollectionItems))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logg.Error(ctx, "failed to ensure item indexes", err)
		os.Exit(1)
	}

	stored, err := repo.ReplaceAll(ctx, catalog.SeedItems())
	if err != nil {
		logg.Error(ctx, "failed to seed items", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "items", len(stored)), "catalog seeded")
	fmt.Printf("seeded %d items\n", len(stored))
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

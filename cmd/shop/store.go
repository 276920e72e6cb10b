package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mongodb"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
)

// store is what both repo backends provide.
type store interface {
	service.UserRepo
	service.ProductRepo
	service.CartRepo
	CountProducts(ctx context.Context) (int64, error)
	CreateProducts(ctx context.Context, products []models.Product) error
	Ping(ctx context.Context) error
}

// openStore connects the configured backend, prepares its schema and returns a close func.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store, func(), error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case "postgres":
		gdb, err := db.Open(initCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		r := &repo.GormRepo{DB: gdb}
		if err := r.Migrate(initCtx); err != nil {
			_ = db.Close(gdb)
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return r, closer(log, "postgres", func() error { return db.Close(gdb) }), nil

	case "sqlite":
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		r := &repo.GormRepo{DB: gdb}
		if err := r.Migrate(initCtx); err != nil {
			_ = db.Close(gdb)
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return r, closer(log, "sqlite", func() error { return db.Close(gdb) }), nil

	case "mongo":
		mdb, err := mongodb.Connect(initCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		r := repo.NewMongoRepo(mdb)
		if err := r.EnsureIndexes(initCtx); err != nil {
			_ = mongodb.Close(context.Background(), mdb)
			return nil, nil, err
		}
		return r, closer(log, "mongo", func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return mongodb.Close(shutdownCtx, mdb)
		}), nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func closer(log *slog.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Error("store_close_error", "status", "failed", "store", name, "error", err)
		}
	}
}

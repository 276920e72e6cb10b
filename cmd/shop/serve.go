package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/seed"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
)

type ServeOptions struct {
	*RootOptions
	Port int
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			opts.apply(cmd, &cfg)
			if cmd.Flags().Changed("port") {
				cfg.ServerPort = opts.Port
			}
			config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 8000, "listen port (overrides SERVER_PORT)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)
	ctx = logging.IntoContext(ctx, log)

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	defer closeStore()

	catalog := &service.CatalogService{Repo: st}

	var productCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		productCache = cache.NewRedisCache(rdb, cfg.CacheTTL)
		catalog.Cache = productCache
	}

	var index *search.ProductIndex
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Warn("search_index_disabled", "status", "unavailable", "error", err)
		} else {
			index = search.NewProductIndex(es, cfg.ESIndex)
			if err := index.EnsureIndex(ctx); err != nil {
				log.Warn("search_index_disabled", "status", "ensure_failed", "error", err)
				index = nil
			} else {
				catalog.Search = index
			}
		}
	}

	var idx seed.Indexer
	if index != nil {
		idx = index
	}
	if err := prepareCatalog(ctx, cfg, st, idx); err != nil {
		return err
	}
	if cfg.SeedOnStart && productCache != nil {
		if err := productCache.Invalidate(ctx); err != nil {
			log.Warn("cache_invalidate_failed", "status", "ignored", "error", err)
		}
	}

	pub, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("events init: %w", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Error("events_close_error", "status", "failed", "error", err)
		}
	}()

	authSvc := &service.AuthService{Users: st, Tokens: tokens.NewManager(cfg.JWTSecret)}

	e := newEcho(cfg, log)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, Events: pub},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: st, Products: st}, Events: pub},
		Verifier:       authSvc,
		Ready: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return st.Ping(pingCtx)
		},
		AuthRateLimit: cfg.AuthRateLimit,
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", "status", "listening", "addr", addr, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("echo start: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("server_stopping", "status", "shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "status", "failed", "error", err)
	}

	log.Info("server_stopped", "status", "ok")
	return nil
}

func newEcho(cfg config.Config, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(loggingmw.RequestLogger(log))
	return e
}

func newPublisher(cfg config.Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers)
	case "nats":
		return events.NewNatsPublisher(cfg.NatsURL, cfg.ServiceName)
	case "", "none":
		return events.Noop{}, nil
	}
	return nil, fmt.Errorf("unknown EVENTS_DRIVER %q", cfg.EventsDriver)
}

// prepareCatalog seeds an empty store when enabled and always refreshes the search index,
// so an index created empty at startup still mirrors the store.
func prepareCatalog(ctx context.Context, cfg config.Config, st seed.Store, idx seed.Indexer) error {
	if cfg.SeedOnStart {
		if _, err := seed.Run(ctx, st, idx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		return nil
	}
	if idx != nil {
		if _, err := seed.Reindex(ctx, st, idx); err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// sharedLoadTimeout bounds a singleflight load, which outlives the caller that started it.
const sharedLoadTimeout = 5 * time.Second

// CatalogService reads products from Repo. Cache and Search are optional.
type CatalogService struct {
	Repo   ProductRepo
	Cache  ProductCache
	Search ProductSearcher

	sf singleflight.Group
}

func (s *CatalogService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.list")

	if s.Search != nil && f.Search != "" {
		items, err := s.Search.Search(ctx, f)
		switch {
		case err != nil:
			l.Warn("search_index_failed", "status", "fallback", "error", err)
		case len(items) == 0:
			// an empty or stale index must not hide products the store has
			l.Debug("search_index_empty", "status", "fallback")
		default:
			return items, nil
		}
	}

	items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_product")

	if s.Cache != nil {
		p, err := s.Cache.GetProduct(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("cache_read_failed", "status", "fallback", "error", err)
		}
	}

	v, err, _ := s.sf.Do("product:"+id, func() (any, error) {
		loadCtx, cancel := detached(ctx)
		defer cancel()
		return s.Repo.GetProduct(loadCtx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}
	p := v.(models.Product)

	if s.Cache != nil {
		if err := s.Cache.SetProduct(ctx, p); err != nil {
			l.Warn("cache_write_failed", "status", "ignored", "error", err)
		}
	}
	return p, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.categories")

	if s.Cache != nil {
		cats, err := s.Cache.GetCategories(ctx)
		if err == nil {
			return cats, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("cache_read_failed", "status", "fallback", "error", err)
		}
	}

	v, err, _ := s.sf.Do("categories", func() (any, error) {
		loadCtx, cancel := detached(ctx)
		defer cancel()
		return s.Repo.Categories(loadCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := v.([]string)

	if s.Cache != nil {
		if err := s.Cache.SetCategories(ctx, cats); err != nil {
			l.Warn("cache_write_failed", "status", "ignored", "error", err)
		}
	}
	return cats, nil
}

// detached keeps ctx values but not its cancellation, so one caller going away
// does not fail the others joined on the same load.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
}

package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const defaultRating = 4.5

//go:embed products.yaml
var catalogYAML []byte

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Category    string   `yaml:"category"`
	ImageURL    string   `yaml:"image_url"`
	Stock       int      `yaml:"stock"`
	Rating      *float64 `yaml:"rating"`
}

type Store interface {
	CountProducts(ctx context.Context) (int64, error)
	CreateProducts(ctx context.Context, products []models.Product) error
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
}

type Indexer interface {
	IndexProducts(ctx context.Context, products []models.Product) error
}

// Catalog parses a YAML catalog and assigns fresh ids.
func Catalog(data []byte) ([]models.Product, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.Product, 0, len(f.Products))
	for i, e := range f.Products {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): price: %w", i, e.Name, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %d (%s): negative price", i, e.Name)
		}
		rating := defaultRating
		if e.Rating != nil {
			rating = *e.Rating
		}
		out = append(out, models.Product{
			ID:          uuid.NewString(),
			Name:        e.Name,
			Description: e.Description,
			Price:       price,
			Category:    e.Category,
			ImageURL:    e.ImageURL,
			Stock:       e.Stock,
			Rating:      rating,
			CreatedAt:   now,
		})
	}
	return out, nil
}

func DefaultCatalog() ([]models.Product, error) {
	return Catalog(catalogYAML)
}

// Run inserts the default catalog when the store has no products and returns how many were inserted.
// When idx is non-nil every stored product is (re)indexed.
func Run(ctx context.Context, store Store, idx Indexer) (int, error) {
	l := logging.FromContext(ctx).With("svc", "seed")

	n, err := store.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	inserted := 0
	if n == 0 {
		products, err := DefaultCatalog()
		if err != nil {
			return 0, err
		}
		if err := store.CreateProducts(ctx, products); err != nil {
			return 0, fmt.Errorf("insert products: %w", err)
		}
		inserted = len(products)
		l.Info("catalog_seeded", "status", "inserted", "count", inserted)
	} else {
		l.Info("catalog_seeded", "status", "skipped", "existing", n)
	}

	if idx != nil {
		if _, err := Reindex(ctx, store, idx); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// Reindex pushes every stored product to idx and returns how many were sent.
func Reindex(ctx context.Context, store Store, idx Indexer) (int, error) {
	all, err := store.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	if err := idx.IndexProducts(ctx, all); err != nil {
		return 0, fmt.Errorf("index products: %w", err)
	}
	logging.FromContext(ctx).Info("catalog_indexed", "svc", "seed", "status", "ok", "count", len(all))
	return len(all), nil
}

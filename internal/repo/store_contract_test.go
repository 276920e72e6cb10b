package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/models"
)

// store is the full surface both backends expose to the services.
type store interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)

	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	CountProducts(ctx context.Context) (int64, error)
	CreateProducts(ctx context.Context, products []models.Product) error

	AddCartItem(ctx context.Context, userID, productID string, quantity int) (models.CartItem, error)
	ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	SetCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	DeleteCartItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error

	Ping(ctx context.Context) error
}

func product(name, description, category, price string) models.Product {
	return models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		ImageURL:    "https://img.example/" + name,
		Stock:       5,
		Rating:      4.5,
		CreatedAt:   time.Now().UTC(),
	}
}

func fixtureCatalog() []models.Product {
	return []models.Product{
		product("iPhone 14 Pro", "Latest iPhone with advanced camera system", "smartphones", "999.99"),
		product("AirPods Pro", "Premium wireless earbuds with noise cancellation", "headphones", "249.99"),
		product("Wireless Mouse", "Ergonomic wireless mouse", "accessories", "79.99"),
		product("Discount Sticker", "Says 100% off", "accessories", "0.50"),
		product("snake_case mug", "For programmers", "kitchen", "12.00"),
		product("Dot.Com Poster", "Retro (1999) print", "decor", "15.00"),
		product("Écran 4K", "Moniteur ÉLÉGANT", "decor", "399.00"),
	}
}

func names(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) store) {
	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := models.User{
			ID:           uuid.NewString(),
			Email:        "alice@example.com",
			PasswordHash: "hash",
			FullName:     "Alice",
			CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, s.CreateUser(ctx, u))

		byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "Alice", byEmail.FullName)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)

		dup := u
		dup.ID = uuid.NewString()
		require.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

		_, err = s.GetUserByEmail(ctx, "bob@example.com")
		require.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByID(ctx, uuid.NewString())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("catalog", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		n, err := s.CountProducts(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		catalog := fixtureCatalog()
		require.NoError(t, s.CreateProducts(ctx, catalog))

		n, err = s.CountProducts(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(len(catalog)), n)

		all, err := s.ListProducts(ctx, models.ProductFilter{})
		require.NoError(t, err)
		assert.Len(t, all, len(catalog))

		cases := []struct {
			name   string
			filter models.ProductFilter
			want   []string
		}{
			{"name case-insensitive", models.ProductFilter{Search: "IPHONE"}, []string{"iPhone 14 Pro"}},
			{"description match", models.ProductFilter{Search: "noise"}, []string{"AirPods Pro"}},
			{"name or description", models.ProductFilter{Search: "wireless"}, []string{"AirPods Pro", "Wireless Mouse"}},
			{"category exact", models.ProductFilter{Category: "accessories"}, []string{"Discount Sticker", "Wireless Mouse"}},
			{"search and category", models.ProductFilter{Search: "wireless", Category: "accessories"}, []string{"Wireless Mouse"}},
			{"percent is literal", models.ProductFilter{Search: "%"}, []string{"Discount Sticker"}},
			{"underscore is literal", models.ProductFilter{Search: "_"}, []string{"snake_case mug"}},
			{"dot is literal", models.ProductFilter{Search: "."}, []string{"Dot.Com Poster"}},
			{"paren is literal", models.ProductFilter{Search: "(1999"}, []string{"Dot.Com Poster"}},
			{"category is case-sensitive", models.ProductFilter{Category: "Accessories"}, []string{}},
			{"non-ascii name case-insensitive", models.ProductFilter{Search: "écran"}, []string{"Écran 4K"}},
			{"non-ascii description case-insensitive", models.ProductFilter{Search: "élégant"}, []string{"Écran 4K"}},
			{"no match", models.ProductFilter{Search: "zzz"}, []string{}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := s.ListProducts(ctx, tc.filter)
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.ElementsMatch(t, tc.want, names(got))
			})
		}

		p, err := s.GetProduct(ctx, catalog[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "iPhone 14 Pro", p.Name)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("999.99")), p.Price.String())
		assert.Equal(t, 4.5, p.Rating)

		_, err = s.GetProduct(ctx, uuid.NewString())
		require.ErrorIs(t, err, ErrNotFound)

		byIDs, err := s.GetProductsByIDs(ctx, []string{catalog[1].ID, uuid.NewString()})
		require.NoError(t, err)
		require.Len(t, byIDs, 1)
		assert.Equal(t, "AirPods Pro", byIDs[catalog[1].ID].Name)

		cats, err := s.Categories(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"smartphones", "headphones", "accessories", "kitchen", "decor"}, cats)
	})

	t.Run("empty catalog categories", func(t *testing.T) {
		s := newStore(t)
		cats, err := s.Categories(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, cats)
		assert.Empty(t, cats)
	})

	t.Run("cart", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		alice, bob := uuid.NewString(), uuid.NewString()
		prodA, prodB := uuid.NewString(), uuid.NewString()

		first, err := s.AddCartItem(ctx, alice, prodA, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, first.Quantity)
		assert.Equal(t, alice, first.UserID)
		assert.Equal(t, prodA, first.ProductID)

		merged, err := s.AddCartItem(ctx, alice, prodA, 3)
		require.NoError(t, err)
		assert.Equal(t, first.ID, merged.ID)
		assert.Equal(t, 5, merged.Quantity)

		_, err = s.AddCartItem(ctx, alice, prodB, 1)
		require.NoError(t, err)
		bobItem, err := s.AddCartItem(ctx, bob, prodA, 1)
		require.NoError(t, err)

		items, err := s.ListCartItems(ctx, alice)
		require.NoError(t, err)
		require.Len(t, items, 2)

		require.NoError(t, s.SetCartItemQuantity(ctx, alice, first.ID, 7))
		require.NoError(t, s.SetCartItemQuantity(ctx, alice, first.ID, 7))
		require.ErrorIs(t, s.SetCartItemQuantity(ctx, alice, bobItem.ID, 9), ErrNotFound)
		require.ErrorIs(t, s.SetCartItemQuantity(ctx, alice, uuid.NewString(), 9), ErrNotFound)

		items, err = s.ListCartItems(ctx, alice)
		require.NoError(t, err)
		for _, it := range items {
			if it.ID == first.ID {
				assert.Equal(t, 7, it.Quantity)
			}
		}

		require.ErrorIs(t, s.DeleteCartItem(ctx, alice, bobItem.ID), ErrNotFound)
		require.NoError(t, s.DeleteCartItem(ctx, alice, first.ID))
		require.ErrorIs(t, s.DeleteCartItem(ctx, alice, first.ID), ErrNotFound)

		require.NoError(t, s.ClearCart(ctx, alice))
		require.NoError(t, s.ClearCart(ctx, alice))
		items, err = s.ListCartItems(ctx, alice)
		require.NoError(t, err)
		assert.Empty(t, items)

		bobs, err := s.ListCartItems(ctx, bob)
		require.NoError(t, err)
		assert.Len(t, bobs, 1)
	})

	t.Run("concurrent adds merge", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user, prod := uuid.NewString(), uuid.NewString()

		const n = 20
		var g errgroup.Group
		for i := 0; i < n; i++ {
			g.Go(func() error {
				_, err := s.AddCartItem(ctx, user, prod, 1)
				return err
			})
		}
		require.NoError(t, g.Wait())

		items, err := s.ListCartItems(ctx, user)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, n, items[0].Quantity)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}

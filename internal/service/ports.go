package service

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

type ProductRepo interface {
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type CartRepo interface {
	AddCartItem(ctx context.Context, userID, productID string, quantity int) (models.CartItem, error)
	ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	SetCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	DeleteCartItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error
}

// ProductCache is an optional read-through layer in front of ProductRepo.
type ProductCache interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	SetProduct(ctx context.Context, p models.Product) error
	GetCategories(ctx context.Context) ([]string, error)
	SetCategories(ctx context.Context, cats []string) error
}

// ProductSearcher serves free-text catalog queries from an external index.
type ProductSearcher interface {
	Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
}

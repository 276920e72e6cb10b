package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo     CartRepo
	Products ProductRepo
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		return models.CartLine{}, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	product, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.CartLine{}, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return models.CartLine{}, fmt.Errorf("get product: %w", err)
	}

	item, err := s.Repo.AddCartItem(ctx, userID, productID, quantity)
	if err != nil {
		return models.CartLine{}, fmt.Errorf("add cart item: %w", err)
	}
	return lineOf(item, product), nil
}

// ListForUser joins cart items to their products. Items whose product is gone are left out.
func (s *CartService) ListForUser(ctx context.Context, userID string) ([]models.CartLine, error) {
	items, err := s.Repo.ListCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			logging.FromContext(ctx).Debug("cart_item_skipped", "status", "dangling_product", "item_id", it.ID, "product_id", it.ProductID)
			continue
		}
		lines = append(lines, lineOf(it, p))
	}
	return lines, nil
}

// UpdateQuantity stores quantity as given; non-positive values are kept and only logged.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		logging.FromContext(ctx).With("svc", "cart.update").
			Warn("non_positive_quantity", "status", "stored", "item_id", itemID, "quantity", quantity)
	}

	if err := s.Repo.SetCartItemQuantity(ctx, userID, itemID, quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if err := s.Repo.DeleteCartItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func lineOf(it models.CartItem, p models.Product) models.CartLine {
	return models.CartLine{
		ID:        it.ID,
		Product:   p,
		Quantity:  it.Quantity,
		CreatedAt: it.CreatedAt,
	}
}

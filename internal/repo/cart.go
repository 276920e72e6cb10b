package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// AddCartItem inserts a line or, if the (user, product) pair exists, adds quantity to it in one statement.
func (r *GormRepo) AddCartItem(ctx context.Context, userID, productID string, quantity int) (models.CartItem, error) {
	var item cartItemRow
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := cartItemRow{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	})
	if err != nil {
		return models.CartItem{}, translate(err)
	}
	return cartItemFromRow(item), nil
}

func (r *GormRepo) ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	var rows []cartItemRow
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.CartItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, cartItemFromRow(row))
	}
	return out, nil
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	res := r.DB.WithContext(ctx).Model(&cartItemRow{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, itemID string) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&cartItemRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&cartItemRow{}).Error
}

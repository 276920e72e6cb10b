package repo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

type userRow struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Email        string    `gorm:"type:varchar(320);uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	FullName     string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type productRow struct {
	ID          string          `gorm:"type:varchar(36);primaryKey"`
	Name        string          `gorm:"not null"`
	Description string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Category    string          `gorm:"index;not null"`
	ImageURL    string
	Stock       int     `gorm:"not null;default:0"`
	Rating      float64 `gorm:"not null;default:0"`
	CreatedAt   time.Time

	// Lowercased by Go, since SQLite LOWER() only folds ASCII.
	NameFolded        string `gorm:"not null;default:''"`
	DescriptionFolded string `gorm:"not null;default:''"`
}

func (productRow) TableName() string { return "products" }

type cartItemRow struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product,priority:1"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product,priority:2"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (cartItemRow) TableName() string { return "cart_items" }

func userFromRow(r userRow) models.User {
	return models.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FullName:     r.FullName,
		CreatedAt:    r.CreatedAt,
	}
}

func userToRow(u models.User) userRow {
	return userRow{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		CreatedAt:    u.CreatedAt,
	}
}

func productFromRow(r productRow) models.Product {
	return models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
		Rating:      r.Rating,
		CreatedAt:   r.CreatedAt,
	}
}

func productToRow(p models.Product) productRow {
	return productRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,

		NameFolded:        fold(p.Name),
		DescriptionFolded: fold(p.Description),
	}
}

func cartItemFromRow(r cartItemRow) models.CartItem {
	return models.CartItem{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
	}
}

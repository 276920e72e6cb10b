package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u models.User) error {
	row := userToRow(u)
	return translate(r.DB.WithContext(ctx).Create(&row).Error)
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var row userRow
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return models.User{}, translate(err)
	}
	return userFromRow(row), nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var row userRow
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.User{}, translate(err)
	}
	return userFromRow(row), nil
}

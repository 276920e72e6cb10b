package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(&userRow{}, &productRow{}, &cartItemRow{}); err != nil {
		return err
	}
	return r.backfillFolded(ctx)
}

// backfillFolded fills the search columns of rows written before they existed.
func (r *GormRepo) backfillFolded(ctx context.Context) error {
	var rows []productRow
	err := r.DB.WithContext(ctx).
		Where("name_folded = '' AND description_folded = ''").
		Where("name <> '' OR description <> ''").
		Find(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		err := r.DB.WithContext(ctx).Model(&productRow{}).Where("id = ?", row.ID).
			Updates(map[string]any{
				"name_folded":        fold(row.Name),
				"description_folded": fold(row.Description),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

// isUniqueViolation catches drivers that do not implement gorm's error translator.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func fold(s string) string {
	return strings.ToLower(s)
}

// likeContains builds a case-folded LIKE pattern matching s literally anywhere in the value.
// It is matched against the *_folded columns.
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(fold(s)) + "%"
}

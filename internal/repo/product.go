package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&productRow{})
	if f.Search != "" {
		p := likeContains(f.Search)
		q = q.Where(`(name_folded LIKE ? ESCAPE '\' OR description_folded LIKE ? ESCAPE '\')`, p, p)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	var rows []productRow
	if err := q.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromRow(row))
	}
	return out, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var row productRow
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Product{}, translate(err)
	}
	return productFromRow(row), nil
}

// GetProductsByIDs returns the products that exist among ids, keyed by id.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []productRow
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = productFromRow(row)
	}
	return out, nil
}

func (r *GormRepo) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := r.DB.WithContext(ctx).Model(&productRow{}).Distinct().Order("category").Pluck("category", &cats).Error; err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&productRow{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepo) CreateProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productToRow(p))
	}
	return translate(r.DB.WithContext(ctx).Create(&rows).Error)
}

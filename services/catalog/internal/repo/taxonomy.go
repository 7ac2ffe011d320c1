package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/services/catalog/internal/models"
	"github.com/Skotchmaster/veranda/services/catalog/internal/transport"
)

type countRow struct {
	ID    uuid.UUID
	Total int64
}

func (r *GormRepo) productCounts(ctx context.Context, column string, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []countRow
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Total
	}
	return out, nil
}

// ListCategories returns the active categories in display order.
func (r *GormRepo) ListCategories(ctx context.Context) ([]transport.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category_order ASC").
		Order("name ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	counts, err := r.productCounts(ctx, "category_id", ids)
	if err != nil {
		return nil, err
	}

	out := make([]transport.Category, len(cats))
	for i, c := range cats {
		out[i] = transport.Category{Category: c, Count: transport.ProductCount{Products: counts[c.ID]}}
	}
	return out, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) ListMaterials(ctx context.Context) ([]transport.Material, error) {
	var mats []models.Material
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&mats).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(mats))
	for i, m := range mats {
		ids[i] = m.ID
	}
	counts, err := r.productCounts(ctx, "material_id", ids)
	if err != nil {
		return nil, err
	}

	out := make([]transport.Material, len(mats))
	for i, m := range mats {
		out[i] = transport.Material{Material: m, Count: transport.ProductCount{Products: counts[m.ID]}}
	}
	return out, nil
}

func (r *GormRepo) CreateMaterial(ctx context.Context, m *models.Material) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

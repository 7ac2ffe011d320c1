package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/veranda/services/catalog/internal/domain"
	"github.com/Skotchmaster/veranda/services/catalog/internal/models"
	"github.com/Skotchmaster/veranda/services/catalog/internal/transport"
)

func (s *CatalogService) ListCategories(ctx context.Context) ([]transport.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	c := &models.Category{
		Name:          name,
		Description:   req.Description,
		ImageURI:      req.ImageURI,
		IsActive:      active,
		CategoryOrder: req.CategoryOrder,
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *CatalogService) ListMaterials(ctx context.Context) ([]transport.Material, error) {
	return s.Repo.ListMaterials(ctx)
}

func (s *CatalogService) CreateMaterial(ctx context.Context, req transport.CreateMaterialRequest) (*models.Material, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	m := &models.Material{Name: name, Description: req.Description, ImageURI: req.ImageURI}
	if err := s.Repo.CreateMaterial(ctx, m); err != nil {
		return nil, translate(err)
	}
	return m, nil
}

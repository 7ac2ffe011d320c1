package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/veranda/pkg/dbtypes"
	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/catalog/internal/assets"
	"github.com/Skotchmaster/veranda/services/catalog/internal/domain"
	"github.com/Skotchmaster/veranda/services/catalog/internal/models"
	"github.com/Skotchmaster/veranda/services/catalog/internal/repo"
	"github.com/Skotchmaster/veranda/services/catalog/internal/search"
	"github.com/Skotchmaster/veranda/services/catalog/internal/transport"
)

type AssetStore interface {
	Save(r io.Reader) (*assets.Stored, error)
}

type CatalogService struct {
	Repo *repo.GormRepo
	// Index is optional. Without it search runs against the database.
	Index  search.Index
	Assets AssetStore

	IndexTimeout time.Duration
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

func (s *CatalogService) indexCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.IndexTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	ictx, cancel := s.indexCtx(ctx)
	defer cancel()
	if err := s.Index.Upsert(ictx, p); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) unindex(ctx context.Context, id uuid.UUID) {
	if s.Index == nil {
		return
	}
	ictx, cancel := s.indexCtx(ctx)
	defer cancel()
	if err := s.Index.Remove(ictx, id); err != nil {
		logging.FromContext(ctx).Warn("unindex_product_failed", "product_id", id, "error", err)
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, translate(err)
}

func (s *CatalogService) GetProducts(ctx context.Context, f transport.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

// SearchProducts asks the index first and falls back to the database when
// the index is missing or failing.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			return total, items, err
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func validSpecs(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: specs must be valid JSON", domain.ErrValidation)
	}
	return datatypes.JSON(raw), nil
}

func (s *CatalogService) checkRefs(ctx context.Context, categoryID, materialID *uuid.UUID) error {
	if categoryID != nil {
		ok, err := s.Repo.CategoryExists(ctx, *categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown category %s", domain.ErrValidation, categoryID)
		}
	}
	if materialID != nil {
		ok, err := s.Repo.MaterialExists(ctx, *materialID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown material %s", domain.ErrValidation, materialID)
		}
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	specs, err := validSpecs(req.Specs)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req.CategoryID, req.MaterialID); err != nil {
		return nil, err
	}

	availability := true
	if req.Availability != nil {
		availability = *req.Availability
	}
	images := dbtypes.StringArray(req.ProductImageURLs)
	if images == nil {
		images = dbtypes.StringArray{}
	}

	prod, err := s.Repo.CreateProduct(ctx, &models.Product{
		Name:             name,
		Description:      strings.TrimSpace(req.Description),
		CategoryID:       req.CategoryID,
		MaterialID:       req.MaterialID,
		ImageURI:         req.ImageURI,
		ProductImageURLs: images,
		Specs:            specs,
		PriceRange:       strings.TrimSpace(req.PriceRange),
		Stock:            stock,
		Availability:     availability,
	})
	if err != nil {
		return nil, translate(err)
	}
	s.reindex(ctx, prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.MaterialID != nil {
		updates["material_id"] = *req.MaterialID
	}
	if req.ImageURI != nil {
		updates["image_uri"] = *req.ImageURI
	}
	if req.ProductImageURLs != nil {
		updates["product_image_urls"] = dbtypes.StringArray(*req.ProductImageURLs)
	}
	if len(req.Specs) > 0 {
		specs, err := validSpecs(req.Specs)
		if err != nil {
			return nil, err
		}
		updates["specs"] = specs
	}
	if req.PriceRange != nil {
		updates["price_range"] = strings.TrimSpace(*req.PriceRange)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
		}
		updates["stock"] = *req.Stock
	}
	if req.Availability != nil {
		updates["availability"] = *req.Availability
	}
	if err := s.checkRefs(ctx, req.CategoryID, req.MaterialID); err != nil {
		return nil, err
	}

	prod, err := s.Repo.PatchProduct(ctx, id, updates)
	if err != nil {
		return nil, translate(err)
	}
	s.reindex(ctx, prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return translate(err)
	}
	s.unindex(ctx, id)
	return nil
}

package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/catalog/internal/domain"
	"github.com/Skotchmaster/veranda/services/catalog/internal/transport"
)

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("get_categories_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list categories")
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("category_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		l.Error("category_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create category")
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) GetMaterials(c echo.Context) error {
	ctx := c.Request().Context()
	mats, err := h.Svc.ListMaterials(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("get_materials_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list materials")
	}
	return c.JSON(http.StatusOK, mats)
}

func (h *CatalogHTTP) CreateMaterial(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_material")

	var req transport.CreateMaterialRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("material_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	mat, err := h.Svc.CreateMaterial(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		l.Error("material_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create material")
	}
	return c.JSON(http.StatusCreated, mat)
}

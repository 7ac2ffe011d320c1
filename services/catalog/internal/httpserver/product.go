package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/catalog/internal/domain"
	"github.com/Skotchmaster/veranda/services/catalog/internal/service"
	"github.com/Skotchmaster/veranda/services/catalog/internal/transport"
	"github.com/Skotchmaster/veranda/services/catalog/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseFilter lists available products unless availability says otherwise.
// availability=all drops the condition.
func parseFilter(c echo.Context) (transport.ProductFilter, error) {
	var f transport.ProductFilter
	var err error
	if f.CategoryID, err = optionalUUID(c, "categoryId"); err != nil {
		return f, errors.New("categoryId is not a uuid")
	}
	if f.MaterialID, err = optionalUUID(c, "materialId"); err != nil {
		return f, errors.New("materialId is not a uuid")
	}

	switch raw := strings.ToLower(strings.TrimSpace(c.QueryParam("availability"))); raw {
	case "":
		available := true
		f.Availability = &available
	case "all":
	default:
		v, perr := strconv.ParseBool(raw)
		if perr != nil {
			return f, errors.New("availability must be true, false or all")
		}
		f.Availability = &v
	}
	return f, nil
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product with this id does not exist")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	f, err := parseFilter(c)
	if err != nil {
		l.Warn("get_products_error", "status", 422, "reason", err.Error())
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.GetProducts(ctx, f, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, transport.ProductList{Data: items, Meta: util.Meta(page, offset, limit, total)})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		l.Error("search_products_error", "status", 500, "reason", "search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, transport.ProductList{Data: items, Meta: util.Meta(page, offset, limit, total)})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			l.Warn("product_create_error", "status", 422, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add product to db")
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "id not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not a uuid")
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		l.Warn("product_patch_error", "status", 404, "reason", "cannot find product in db")
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, domain.ErrValidation):
		l.Warn("product_patch_error", "status", 422, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		l.Error("product_patch_error", "status", 500, "reason", "cannot update product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id not an uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id not an uuid")
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			l.Warn("product_delete_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, domain.ErrConflict):
			l.Warn("product_delete_error", "status", 409, "reason", "product is referenced by quote requests")
			return echo.NewHTTPError(http.StatusConflict, "product is referenced by quote requests")
		}
		l.Error("product_delete_error", "status", 500, "reason", "cannot delete product from db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product from db")
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

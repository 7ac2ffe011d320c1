package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/catalog/internal/domain"
	"github.com/Skotchmaster/veranda/services/catalog/internal/service"
)

// UploadAsset takes a multipart form with a single "file" field.
func (h *CatalogHTTP) UploadAsset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload_asset")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("asset_upload_error", "status", 400, "reason", "file field missing", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file field missing")
	}
	f, err := fh.Open()
	if err != nil {
		l.Error("asset_upload_error", "status", 500, "reason", "cannot open upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer f.Close()

	asset, err := h.Svc.UploadAsset(ctx, f)
	switch {
	case errors.Is(err, domain.ErrValidation):
		l.Warn("asset_upload_error", "status", 422, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAssetsDisabled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "uploads are disabled")
	case err != nil:
		l.Error("asset_upload_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store upload")
	}
	return c.JSON(http.StatusCreated, asset)
}

package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
)

// fail maps domain errors onto HTTP codes. Internal details are logged
// and never returned.
func fail(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "unauthenticated")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		l.Warn(event, "status", http.StatusForbidden, "reason", "forbidden", "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

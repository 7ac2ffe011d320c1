package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/gateway/internal/middleware"
	"github.com/Skotchmaster/veranda/pkg/middleware/csrf"
)

type Deps struct {
	AuthURL    string
	CatalogURL string
	QuotesURL  string

	CSRFConfig   csrf.Config
	JWTSecret    []byte
	AllowOrigins []string
	Logger       *slog.Logger
}

var mutating = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger, d.AllowOrigins) {
		e.Use(m)
	}
	e.Use(csrf.Middleware(d.CSRFConfig))

	tr := newTransport()
	authProxy, err := upstream(d.AuthURL, "/api/v1/auth", tr)
	if err != nil {
		return err
	}
	catalogProxy, err := upstream(d.CatalogURL, "/api/v1", tr)
	if err != nil {
		return err
	}
	assetProxy, err := upstream(d.CatalogURL, "", tr)
	if err != nil {
		return err
	}
	quotesProxy, err := upstream(d.QuotesURL, "/api/v1", tr)
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth/*", authProxy)
	e.GET("/api/v1/catalog/*", catalogProxy)
	e.GET("/assets/*", assetProxy)

	api := e.Group("/api/v1")
	api.Use(middleware.Middleware(d.JWTSecret))

	api.Match(mutating, "/catalog/*", catalogProxy)
	api.Any("/quotes", quotesProxy)
	api.Any("/quotes/*", quotesProxy)

	return nil
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/veranda/pkg/middleware/auth"
)

type Deps struct {
	QuotesHandler *QuotesHTTP
	JWTSecret     []byte
	AuthClient    middleware.Refresher
	Ready         func() error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)
	h := d.QuotesHandler

	quotes := e.Group("/quotes", authMW.RequireAuth)
	quotes.GET("/requests", h.ListRequests)
	quotes.POST("/requests", h.CreateRequest)
	quotes.GET("/requests/export.csv", h.ExportCSV)
	quotes.GET("/requests/:id", h.GetRequest)
	quotes.PATCH("/requests/:id", h.UpdateStatus)
	quotes.GET("/requests/:id/messages", h.ListMessages)
	quotes.POST("/messages", h.PostMessage)
	quotes.GET("/stats", h.Stats)
	quotes.GET("/events", h.Events)
}

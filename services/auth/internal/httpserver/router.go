package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/veranda/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// the auth service is the refresher, so expired tokens are simply rejected here
	authMw := middleware.NewAutoRefreshMiddleware(d.JWTSecret, nil)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.LogOut)
	e.GET("/me", d.AuthHandler.Me, authMw.RequireAuth)
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/identity"
	jwthelp "github.com/Skotchmaster/veranda/pkg/jwt"
	"github.com/Skotchmaster/veranda/pkg/tokens"
)

// Middleware rejects requests that cannot possibly authenticate downstream.
// An expired access token still passes when a refresh cookie is present,
// because the services refresh the session themselves.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accessCookie, err := c.Cookie(jwthelp.AccessCookie)
			if err != nil || accessCookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, secret)
			if errors.Is(err, jwt.ErrTokenExpired) {
				if rc, rErr := c.Cookie(jwthelp.RefreshCookie); rErr == nil && rc.Value != "" {
					return next(c)
				}
			}
			if err != nil || claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}
			c.Set(identity.CtxUserID, claims.Subject)
			c.Set(identity.CtxRole, claims.Role)

			return next(c)
		}
	}
}

package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/authclient"
	"github.com/Skotchmaster/veranda/pkg/identity"
	jwthelp "github.com/Skotchmaster/veranda/pkg/jwt"
	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/auth/internal/service"
	"github.com/Skotchmaster/veranda/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func setSession(c echo.Context, res *service.LoginResult) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearSession(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "register failed")
	}

	l.Info("register_successful", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	setSession(c, res)
	l.Info("login_successful", "user_id", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"is_admin": res.IsAdmin(),
		"user":     res.User,
	})
}

// Refresh is called by browsers and by the other services' auth middleware.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	cookie, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		clearSession(c)
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			l.Warn("refresh_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	setSession(c, res)
	return c.JSON(http.StatusOK, authclient.RefreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp.Unix(),
		RefreshExp:   res.RefreshExp.Unix(),
		IsAdmin:      res.IsAdmin(),
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if refreshCookie, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		if err := h.Svc.LogOut(ctx, refreshCookie.Value); err != nil {
			clearSession(c)
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	clearSession(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	who, err := identity.FromEcho(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.Svc.Me(c.Request().Context(), who.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

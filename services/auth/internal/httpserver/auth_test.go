package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/veranda/pkg/authclient"
	"github.com/Skotchmaster/veranda/pkg/dbtest"
	jwthelp "github.com/Skotchmaster/veranda/pkg/jwt"
	"github.com/Skotchmaster/veranda/services/auth/internal/models"
	"github.com/Skotchmaster/veranda/services/auth/internal/repo"
	"github.com/Skotchmaster/veranda/services/auth/internal/service"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := dbtest.Open(t, &models.User{}, &models.RefreshToken{})
	svc := &service.AuthService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     []byte("access"),
		RefreshSecret: []byte("refresh"),
	}
	e := echo.New()
	Register(e, &Deps{AuthHandler: &AuthHTTP{Svc: svc}, JWTSecret: svc.JWTSecret})
	return e
}

func post(e *echo.Echo, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	e := newTestServer(t)

	rec := post(e, "/register", map[string]any{"email": "dana@example.com", "password": "Secret123", "name": "Dana", "role": "ADMIN"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "CLIENT", user["role"])
	assert.NotContains(t, rec.Body.String(), "Secret123")
	assert.NotContains(t, user, "passwordHash")

	rec = post(e, "/register", map[string]any{"email": "dana@example.com", "password": "Secret123", "name": "Dana"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(e, "/login", map[string]any{"email": "dana@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(e, "/login", map[string]any{"email": "dana@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookie(rec, jwthelp.AccessCookie)
	refresh := cookie(rec, jwthelp.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(access)
	meRec := httptest.NewRecorder()
	e.ServeHTTP(meRec, req)
	require.Equal(t, http.StatusOK, meRec.Code)
	assert.Contains(t, meRec.Body.String(), "dana@example.com")

	rec = post(e, "/refresh", nil, refresh, access)
	require.Equal(t, http.StatusOK, rec.Code)
	var rr authclient.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rr))
	assert.NotEmpty(t, rr.AccessToken)
	assert.NotEqual(t, refresh.Value, rr.RefreshToken)
	assert.False(t, rr.IsAdmin)

	rec = post(e, "/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	newRefresh := &http.Cookie{Name: jwthelp.RefreshCookie, Value: rr.RefreshToken}
	rec = post(e, "/logout", nil, newRefresh)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = post(e, "/refresh", nil, newRefresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

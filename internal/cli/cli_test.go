package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/veranda/internal/state"
)

type fakeGateway struct {
	mu         sync.Mutex
	submitted  []json.RawMessage
	failSubmit bool
	events     string
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.URL.Path == "/api/v1/auth/login":
		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "acc", Path: "/", MaxAge: 900})
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "ref", Path: "/", MaxAge: 3600})
		writeJSON(http.StatusOK, map[string]any{"is_admin": false, "user": map[string]string{"email": "buyer@acme.test"}})

	case r.URL.Path == "/api/v1/catalog/categories":
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok", Path: "/"})
		writeJSON(http.StatusOK, []any{})

	case r.URL.Path == "/api/v1/catalog/products/p1":
		writeJSON(http.StatusOK, map[string]any{"id": "p1", "name": "Teak bench", "priceRange": "$200-$300", "stock": 4, "availability": true})

	case r.URL.Path == "/api/v1/catalog/products/missing":
		writeJSON(http.StatusNotFound, map[string]string{"message": "product not found"})

	case r.URL.Path == "/api/v1/quotes/requests" && r.Method == http.MethodPost:
		if r.Header.Get("X-CSRF-Token") != "tok" {
			writeJSON(http.StatusForbidden, map[string]string{"message": "invalid CSRF token"})
			return
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.failSubmit {
			writeJSON(http.StatusInternalServerError, map[string]string{"message": "internal error"})
			return
		}
		raw, _ := io.ReadAll(r.Body)
		g.submitted = append(g.submitted, raw)
		writeJSON(http.StatusCreated, map[string]string{"id": "q1", "status": "PENDING"})

	case r.URL.Path == "/api/v1/quotes/events":
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, g.events)

	default:
		writeJSON(http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func startGateway(t *testing.T, g *fakeGateway) string {
	t.Helper()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return srv.URL + "/api/v1"
}

func run(t *testing.T, statePath, baseURL string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--state", statePath, "--base-url", baseURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"login", "register", "logout", "whoami", "products", "basket", "requests", "status", "messages", "send", "stats", "watch"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "s.yaml"), "http://127.0.0.1:1", "--format", "xml", "basket", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoginPersistsSession(t *testing.T) {
	base := startGateway(t, &fakeGateway{})
	path := filepath.Join(t.TempDir(), "state.yaml")

	out, err := run(t, path, base, "login", "--email", "buyer@acme.test", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as buyer@acme.test (client)")

	st, err := state.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "buyer@acme.test", st.Email)
	assert.Equal(t, base, st.BaseURL)
	names := map[string]string{}
	for _, c := range st.Cookies {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "acc", names["accessToken"])
	assert.Equal(t, "ref", names["refreshToken"])
}

func TestBasketFlow(t *testing.T) {
	g := &fakeGateway{}
	base := startGateway(t, g)
	path := filepath.Join(t.TempDir(), "state.yaml")

	_, err := run(t, path, base, "basket", "add", "p1", "--qty", "2", "--spec", "finish=oiled")
	require.NoError(t, err)
	out, err := run(t, path, base, "basket", "add", "p1", "--qty", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "basket holds 5 items")

	out, err = run(t, path, base, "basket", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Teak bench")
	assert.Contains(t, out, "finish=oiled")

	out, err = run(t, path, base, "basket", "submit", "--notes", "for the terrace")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted quote request q1")

	require.Len(t, g.submitted, 1)
	assert.JSONEq(t, `{"items":[{"productId":"p1","quantity":5,"customSpecs":{"finish":"oiled"}}],"notes":"for the terrace"}`, string(g.submitted[0]))

	st, err := state.Load(path)
	require.NoError(t, err)
	assert.Zero(t, st.Basket.Len())
}

func TestBasketKeptWhenSubmitFails(t *testing.T) {
	g := &fakeGateway{failSubmit: true}
	base := startGateway(t, g)
	path := filepath.Join(t.TempDir(), "state.yaml")

	_, err := run(t, path, base, "basket", "add", "p1")
	require.NoError(t, err)
	_, err = run(t, path, base, "basket", "submit")
	require.Error(t, err)

	st, err := state.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Basket.Len())
}

func TestBasketAddUnknownProduct(t *testing.T) {
	base := startGateway(t, &fakeGateway{})
	path := filepath.Join(t.TempDir(), "state.yaml")

	_, err := run(t, path, base, "basket", "add", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")
}

func TestBasketSetAndRemove(t *testing.T) {
	base := startGateway(t, &fakeGateway{})
	path := filepath.Join(t.TempDir(), "state.yaml")

	_, err := run(t, path, base, "basket", "add", "p1")
	require.NoError(t, err)
	_, err = run(t, path, base, "basket", "set", "p1", "7")
	require.NoError(t, err)

	out, err := run(t, path, base, "--format", "json", "basket", "list")
	require.NoError(t, err)
	var lines []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 1)
	assert.EqualValues(t, 7, lines[0]["quantity"])

	_, err = run(t, path, base, "basket", "rm", "p1")
	require.NoError(t, err)
	_, err = run(t, path, base, "basket", "rm", "p1")
	assert.Error(t, err)
}

func TestParseSpecs(t *testing.T) {
	m, err := parseSpecs([]string{"color = walnut", "size=2m"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"color": "walnut", "size": "2m"}, m)

	_, err = parseSpecs([]string{"novalue"})
	assert.Error(t, err)
}

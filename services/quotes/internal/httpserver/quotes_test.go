package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/veranda/pkg/identity"
	jwthelp "github.com/Skotchmaster/veranda/pkg/jwt"
	"github.com/Skotchmaster/veranda/pkg/tokens"
	"github.com/Skotchmaster/veranda/services/quotes/internal/notify"
	"github.com/Skotchmaster/veranda/services/quotes/internal/repo"
	"github.com/Skotchmaster/veranda/services/quotes/internal/service"
	"github.com/Skotchmaster/veranda/services/quotes/internal/testutil"
	"github.com/Skotchmaster/veranda/services/quotes/internal/transport"
)

var testSecret = []byte("quotes-test-secret")

type testEnv struct {
	*testutil.Env
	e     *echo.Echo
	hub   *notify.Hub
	relay *notify.Relay
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seed := testutil.Seed(t)
	hub := notify.NewHub(8)
	relay, err := notify.NewRelay(hub, notify.RelayOptions{PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = relay.Close(time.Second) })

	svc := service.New(&repo.GormRepo{DB: seed.DB}, relay)
	e := echo.New()
	Register(e, &Deps{
		QuotesHandler: &QuotesHTTP{Svc: svc, Hub: hub, KeepAlive: 50 * time.Millisecond},
		JWTSecret:     testSecret,
	})
	return &testEnv{Env: seed, e: e, hub: hub, relay: relay}
}

func (env *testEnv) token(t *testing.T, who identity.Identity) *http.Cookie {
	t.Helper()
	tok, err := tokens.SignAccess(who.UserID.String(), string(who.Role), time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: jwthelp.AccessCookie, Value: tok}
}

func (env *testEnv) do(t *testing.T, who *identity.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if who != nil {
		req.AddCookie(env.token(t, *who))
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createRequest(t *testing.T, who identity.Identity) transport.QuoteRequest {
	t.Helper()
	rec := env.do(t, &who, http.MethodPost, "/quotes/requests", map[string]any{
		"items": []map[string]any{
			{"productId": env.Bench.ID, "quantity": 2, "customSpecs": map[string]string{"finish": "oiled"}},
			{"productId": env.Lounger.ID, "quantity": 1},
		},
		"notes": "rooftop",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out transport.QuoteRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	q := env.createRequest(t, env.Alice)

	assert.Equal(t, "PENDING", string(q.Status))
	require.Len(t, q.Items, 2)
	assert.JSONEq(t, `{"finish":"oiled"}`, string(q.Items[0].CustomSpecs))
	assert.Equal(t, "Harbour Bench", q.Items[0].Product.Name)
	require.NotNil(t, q.Items[0].Product.Material)
	assert.Equal(t, "Teak", q.Items[0].Product.Material.Name)
	assert.Equal(t, "alice@terrace.test", q.User.Email)

	rec := env.do(t, &env.Alice, http.MethodGet, "/quotes/requests/"+q.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = env.do(t, &env.Bob, http.MethodGet, "/quotes/requests/"+q.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, &env.Bob, http.MethodGet, "/quotes/requests/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusCodes(t *testing.T) {
	env := newTestEnv(t)
	q := env.createRequest(t, env.Alice)
	path := "/quotes/requests/" + q.ID.String()

	cases := []struct {
		name   string
		who    *identity.Identity
		method string
		path   string
		body   any
		want   int
	}{
		{"anonymous list", nil, http.MethodGet, "/quotes/requests", nil, http.StatusUnauthorized},
		{"empty items", &env.Alice, http.MethodPost, "/quotes/requests", map[string]any{"items": []any{}}, http.StatusUnprocessableEntity},
		{"unknown product", &env.Alice, http.MethodPost, "/quotes/requests", map[string]any{"items": []any{map[string]any{"productId": uuid.New(), "quantity": 1}}}, http.StatusNotFound},
		{"bad status filter", &env.Alice, http.MethodGet, "/quotes/requests?status=LOST", nil, http.StatusUnprocessableEntity},
		{"bad since filter", &env.Alice, http.MethodGet, "/quotes/requests?since=yesterdayish", nil, http.StatusUnprocessableEntity},
		{"client patch", &env.Alice, http.MethodPatch, path, map[string]string{"status": "APPROVED"}, http.StatusForbidden},
		{"admin unknown status", &env.Admin, http.MethodPatch, path, map[string]string{"status": "SHIPPED"}, http.StatusUnprocessableEntity},
		{"admin unknown id", &env.Admin, http.MethodPatch, "/quotes/requests/" + uuid.NewString(), map[string]string{"status": "QUOTED"}, http.StatusNotFound},
		{"stranger message", &env.Bob, http.MethodPost, "/quotes/messages", map[string]string{"quoteRequestId": q.ID.String(), "content": "hi"}, http.StatusForbidden},
		{"empty message", &env.Alice, http.MethodPost, "/quotes/messages", map[string]string{"quoteRequestId": q.ID.String(), "content": "  "}, http.StatusUnprocessableEntity},
		{"anonymous message", nil, http.MethodPost, "/quotes/messages", map[string]string{"quoteRequestId": q.ID.String(), "content": "hi"}, http.StatusUnauthorized},
		{"message malformed request id", &env.Alice, http.MethodPost, "/quotes/messages", map[string]string{"quoteRequestId": "not-a-uuid", "content": "hi"}, http.StatusNotFound},
		{"message unknown request", &env.Alice, http.MethodPost, "/quotes/messages", map[string]string{"quoteRequestId": uuid.NewString(), "content": "hi"}, http.StatusNotFound},
		{"stranger thread", &env.Bob, http.MethodGet, path + "/messages", nil, http.StatusForbidden},
		{"client stats", &env.Alice, http.MethodGet, "/quotes/stats", nil, http.StatusForbidden},
		{"client export", &env.Alice, http.MethodGet, "/quotes/requests/export.csv", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, tc.who, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestListScopesAndFilters(t *testing.T) {
	env := newTestEnv(t)
	a := env.createRequest(t, env.Alice)
	env.createRequest(t, env.Bob)

	rec := env.do(t, &env.Admin, http.MethodPatch, "/quotes/requests/"+a.ID.String(), map[string]string{"status": "quoted"})
	require.Equal(t, http.StatusOK, rec.Code)

	var list []transport.QuoteRequest
	rec = env.do(t, &env.Alice, http.MethodGet, "/quotes/requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	rec = env.do(t, &env.Admin, http.MethodGet, "/quotes/requests", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = env.do(t, &env.Admin, http.MethodGet, "/quotes/requests?status=QUOTED&since=2020-01-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestConversationAndStats(t *testing.T) {
	env := newTestEnv(t)
	q := env.createRequest(t, env.Alice)

	for _, m := range []struct {
		who  identity.Identity
		text string
	}{{env.Alice, "Teak?"}, {env.Admin, "Yes."}} {
		rec := env.do(t, &m.who, http.MethodPost, "/quotes/messages", map[string]string{"quoteRequestId": q.ID.String(), "content": m.text})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var msg transport.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		assert.Equal(t, m.text, msg.Content)
		assert.Equal(t, string(m.who.Role), msg.FromUser.Role)
	}

	var thread []transport.Message
	rec := env.do(t, &env.Alice, http.MethodGet, "/quotes/requests/"+q.ID.String()+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	require.Len(t, thread, 2)
	assert.Equal(t, "Teak?", thread[0].Content)
	assert.Equal(t, "Yes.", thread[1].Content)

	var st repo.Stats
	rec = env.do(t, &env.Admin, http.MethodGet, "/quotes/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.EqualValues(t, 1, st.TotalRequests)
	assert.EqualValues(t, 1, st.PendingRequests)
	assert.EqualValues(t, 1, st.UniqueClients)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	q := env.createRequest(t, env.Alice)

	rec := env.do(t, &env.Admin, http.MethodGet, "/quotes/requests/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "request_id", records[0][0])
	assert.Equal(t, q.ID.String(), records[1][0])
	assert.Equal(t, "Harbour Bench", records[1][7])
	assert.Equal(t, "2", records[1][8])
	assert.Equal(t, "Sun Lounger", records[2][7])
}

type sseEvent struct {
	id, event, data string
}

func readEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.id != "" {
				return ev
			}
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return ev
}

func TestEventsStream_StatusUpdateReachesOwner(t *testing.T) {
	env := newTestEnv(t)
	q := env.createRequest(t, env.Alice)

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/quotes/events", nil)
	require.NoError(t, err)
	req.AddCookie(env.token(t, env.Alice))
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	channel := notify.UserChannel(env.Alice.UserID)
	require.Eventually(t, func() bool { return env.hub.Subscribers(channel) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := env.do(t, &env.Admin, http.MethodPatch, "/quotes/requests/"+q.ID.String(), map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, rec.Code)

	ev := readEvent(t, bufio.NewScanner(resp.Body))
	assert.Equal(t, string(notify.EventStatusUpdate), ev.event)

	var env2 notify.Envelope
	require.NoError(t, json.Unmarshal([]byte(ev.data), &env2))
	assert.Equal(t, ev.id, env2.ID.String())
	assert.Equal(t, channel, env2.Channel)

	var p notify.StatusUpdatePayload
	require.NoError(t, json.Unmarshal(env2.Payload, &p))
	assert.Equal(t, q.ID, p.QuoteRequestID)
	assert.Equal(t, "APPROVED", string(p.Status))
}

func TestEventsRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, nil, http.MethodGet, "/quotes/events", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
	"github.com/Skotchmaster/veranda/services/quotes/internal/repo"
	"github.com/Skotchmaster/veranda/services/quotes/internal/testutil"
	"github.com/Skotchmaster/veranda/services/quotes/internal/transport"
)

type sent struct {
	event string
	req   uuid.UUID
	owner uuid.UUID
	role  identity.Role
}

type fakeNotifier struct {
	mu  sync.Mutex
	got []sent
}

func (f *fakeNotifier) MessagePosted(_ context.Context, req *models.QuoteRequest, _ *models.Message, role identity.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, sent{event: "new-message", req: req.ID, owner: req.UserID, role: role})
}

func (f *fakeNotifier) StatusChanged(_ context.Context, req *models.QuoteRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, sent{event: "status-update", req: req.ID, owner: req.UserID})
}

func setup(t *testing.T) (*testutil.Env, *QuoteService, *fakeNotifier) {
	t.Helper()
	env := testutil.Seed(t)
	n := &fakeNotifier{}
	return env, New(&repo.GormRepo{DB: env.DB}, n), n
}

func create(t *testing.T, svc *QuoteService, who identity.Identity, items ...transport.CreateItem) *models.QuoteRequest {
	t.Helper()
	q, err := svc.CreateRequest(context.Background(), who, transport.CreateRequest{Items: items})
	require.NoError(t, err)
	return q
}

func item(p models.Product, qty int) transport.CreateItem {
	return transport.CreateItem{ProductID: p.ID.String(), Quantity: qty}
}

func TestCreateRequest_MultiItem(t *testing.T) {
	env, svc, _ := setup(t)
	ctx := context.Background()

	notes := "  for the rooftop  "
	q, err := svc.CreateRequest(ctx, env.Alice, transport.CreateRequest{
		Items: []transport.CreateItem{
			{ProductID: env.Bench.ID.String(), Quantity: 2, CustomSpecs: json.RawMessage(`{"finish":"oiled"}`)},
			item(env.Lounger, 5),
		},
		Notes: &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, q.Status)
	assert.Equal(t, env.Alice.UserID, q.UserID)
	require.NotNil(t, q.Notes)
	assert.Equal(t, "for the rooftop", *q.Notes)
	require.Len(t, q.Items, 2)
	assert.Equal(t, env.Bench.ID, q.Items[0].ProductID)
	assert.Equal(t, 2, q.Items[0].Quantity)
	assert.JSONEq(t, `{"finish":"oiled"}`, string(q.Items[0].CustomSpecs))
	assert.Equal(t, "Harbour Bench", q.Items[0].Product.Name)
	require.NotNil(t, q.Items[0].Product.Category)
	assert.Equal(t, "Benches", q.Items[0].Product.Category.Name)
	assert.Equal(t, 5, q.Items[1].Quantity)
	assert.Equal(t, "Alice", q.User.Name)
}

func TestCreateRequest_Validation(t *testing.T) {
	env, svc, _ := setup(t)
	ctx := context.Background()

	cases := map[string]transport.CreateRequest{
		"no items":     {},
		"zero qty":     {Items: []transport.CreateItem{item(env.Bench, 0)}},
		"negative qty": {Items: []transport.CreateItem{item(env.Bench, 1), item(env.Lounger, -2)}},
		"bad id":       {Items: []transport.CreateItem{{ProductID: "bench-1", Quantity: 1}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateRequest(ctx, env.Alice, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err := svc.CreateRequest(ctx, identity.Identity{}, transport.CreateRequest{Items: []transport.CreateItem{item(env.Bench, 1)}})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreateRequest_UnknownProductPersistsNothing(t *testing.T) {
	env, svc, _ := setup(t)

	_, err := svc.CreateRequest(context.Background(), env.Alice, transport.CreateRequest{
		Items: []transport.CreateItem{item(env.Bench, 1), {ProductID: uuid.NewString(), Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	var reqs, items int64
	require.NoError(t, env.DB.Model(&models.QuoteRequest{}).Count(&reqs).Error)
	require.NoError(t, env.DB.Model(&models.RequestItem{}).Count(&items).Error)
	assert.Zero(t, reqs)
	assert.Zero(t, items)
}

func TestCreateRequest_DuplicateProductsKeptAsLines(t *testing.T) {
	env, svc, _ := setup(t)
	q := create(t, svc, env.Alice, item(env.Bench, 1), item(env.Bench, 3))
	require.Len(t, q.Items, 2)
	assert.Equal(t, 1, q.Items[0].Quantity)
	assert.Equal(t, 3, q.Items[1].Quantity)
}

func TestListRequests_ClientSeesOnlyOwn(t *testing.T) {
	env, svc, _ := setup(t)
	ctx := context.Background()

	a := create(t, svc, env.Alice, item(env.Bench, 1))
	create(t, svc, env.Bob, item(env.Lounger, 1))

	got, err := svc.ListRequests(ctx, env.Alice, repo.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	_, err = svc.GetRequest(ctx, env.Bob, a.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetRequest(ctx, env.Bob, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListRequests_AdminSeesAllNewestFirst(t *testing.T) {
	env, svc, _ := setup(t)
	ctx := context.Background()

	first := create(t, svc, env.Alice, item(env.Bench, 1))
	second := create(t, svc, env.Bob, item(env.Lounger, 1))
	older := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.DB.Model(&models.QuoteRequest{}).Where("id = ?", first.ID).Update("created_at", older).Error)

	got, err := svc.ListRequests(ctx, env.Admin, repo.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, "Alice", got[1].User.Name)
	require.NotNil(t, got[1].User.CompanyName)
	assert.Equal(t, "Terrace Ltd", *got[1].User.CompanyName)

	since := time.Now().UTC().Add(-time.Minute)
	recent, err := svc.ListRequests(ctx, env.Admin, repo.Filter{Since: &since})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.ID, recent[0].ID)
}

func TestListRequests_StatusFilter(t *testing.T) {
	env, svc, _ := setup(t)
	ctx := context.Background()

	a := create(t, svc, env.Alice, item(env.Bench, 1))
	create(t, svc, env.Alice, item(env.Lounger, 1))
	_, err := svc.UpdateStatus(ctx, env.Admin, a.ID, "QUOTED")
	require.NoError(t, err)

	quoted := models.StatusQuoted
	got, err := svc.ListRequests(ctx, env.Alice, repo.Filter{Status: &quoted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	bogus := models.Status("ARCHIVED")
	_, err = svc.ListRequests(ctx, env.Alice, repo.Filter{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	env, svc, n := setup(t)
	ctx := context.Background()
	q := create(t, svc, env.Alice, item(env.Bench, 1))

	_, err := svc.UpdateStatus(ctx, env.Alice, q.ID, "APPROVED")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.GetRequest(ctx, env.Alice, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Empty(t, n.got)

	_, err = svc.UpdateStatus(ctx, env.Admin, uuid.New(), "APPROVED")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, env.Admin, q.ID, "SHIPPED")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateStatus_FlatStateMachine(t *testing.T) {
	env, svc, n := setup(t)
	ctx := context.Background()
	q := create(t, svc, env.Alice, item(env.Bench, 1))

	for _, st := range []string{"REJECTED", "pending", "APPROVED", "QUOTED"} {
		got, err := svc.UpdateStatus(ctx, env.Admin, q.ID, st)
		require.NoError(t, err, st)
		want, _ := ParseStatus(st)
		assert.Equal(t, want, got.Status)
	}

	require.Len(t, n.got, 4)
	for _, s := range n.got {
		assert.Equal(t, "status-update", s.event)
		assert.Equal(t, env.Alice.UserID, s.owner)
	}
}

func TestStatsAndExport(t *testing.T) {
	env, svc, _ := setup(t)
	ctx := context.Background()

	q := create(t, svc, env.Alice, item(env.Bench, 2), item(env.Lounger, 1))
	create(t, svc, env.Alice, item(env.Lounger, 1))
	create(t, svc, env.Bob, item(env.Bench, 1))
	_, err := svc.UpdateStatus(ctx, env.Admin, q.ID, "QUOTED")
	require.NoError(t, err)

	_, err = svc.Stats(ctx, env.Alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	st, err := svc.Stats(ctx, env.Admin)
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.TotalRequests)
	assert.EqualValues(t, 2, st.PendingRequests)
	assert.EqualValues(t, 2, st.TotalProducts)
	assert.EqualValues(t, 2, st.UniqueClients)

	_, err = svc.ExportRows(ctx, env.Bob)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	rows, err := svc.ExportRows(ctx, env.Admin)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

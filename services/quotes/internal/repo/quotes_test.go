package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
	"github.com/Skotchmaster/veranda/services/quotes/internal/testutil"
)

func newRequest(env *testutil.Env, owner uuid.UUID) *models.QuoteRequest {
	return &models.QuoteRequest{
		UserID: owner,
		Status: models.StatusPending,
		Items: []models.RequestItem{
			{ProductID: env.Lounger.ID, Quantity: 3},
			{ProductID: env.Bench.ID, Quantity: 1},
		},
	}
}

func TestCreateRequest_KeepsItemOrder(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}

	q, err := r.CreateRequest(context.Background(), newRequest(env, env.Alice.UserID))
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, env.Lounger.ID, q.Items[0].ProductID)
	assert.Equal(t, env.Bench.ID, q.Items[1].ProductID)
	assert.Equal(t, 1, q.Items[1].Position)
	assert.Equal(t, "Alice", q.User.Name)
}

func TestCreateRequest_MissingProductRollsBack(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}

	q := newRequest(env, env.Alice.UserID)
	q.Items = append(q.Items, models.RequestItem{ProductID: uuid.New(), Quantity: 1})

	_, err := r.CreateRequest(context.Background(), q)
	require.ErrorIs(t, err, domain.ErrNotFound)

	var n int64
	require.NoError(t, env.DB.Model(&models.QuoteRequest{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListRequests_ScopeInsideQuery(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}
	ctx := context.Background()

	_, err := r.CreateRequest(ctx, newRequest(env, env.Alice.UserID))
	require.NoError(t, err)
	_, err = r.CreateRequest(ctx, newRequest(env, env.Bob.UserID))
	require.NoError(t, err)

	mine, err := r.ListRequests(ctx, env.Bob, Filter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, env.Bob.UserID, mine[0].UserID)

	all, err := r.ListRequests(ctx, env.Admin, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListMessages_TiesBrokenByID(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}
	ctx := context.Background()

	q, err := r.CreateRequest(ctx, newRequest(env, env.Alice.UserID))
	require.NoError(t, err)

	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	lo := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	hi := uuid.MustParse("ffffffff-0000-0000-0000-00000000000b")
	later := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	for _, m := range []models.Message{
		{ID: later, QuoteRequestID: q.ID, FromUserID: env.Admin.UserID, Content: "third", CreatedAt: at.Add(time.Second)},
		{ID: hi, QuoteRequestID: q.ID, FromUserID: env.Alice.UserID, Content: "second", CreatedAt: at},
		{ID: lo, QuoteRequestID: q.ID, FromUserID: env.Alice.UserID, Content: "first", CreatedAt: at},
	} {
		m := m
		_, err := r.AppendMessage(ctx, &m)
		require.NoError(t, err)
	}

	thread, err := r.ListMessages(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{thread[0].Content, thread[1].Content, thread[2].Content})
	assert.Equal(t, "ADMIN", thread[2].FromUser.Role)
}

func TestAppendMessage_StampsAfterThreadTail(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}
	ctx := context.Background()

	q, err := r.CreateRequest(ctx, newRequest(env, env.Alice.UserID))
	require.NoError(t, err)

	// written by an instance whose clock runs an hour ahead
	ahead := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	_, err = r.AppendMessage(ctx, &models.Message{QuoteRequestID: q.ID, FromUserID: env.Admin.UserID, Content: "first", CreatedAt: ahead})
	require.NoError(t, err)

	second, err := r.AppendMessage(ctx, &models.Message{QuoteRequestID: q.ID, FromUserID: env.Alice.UserID, Content: "second"})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.After(ahead), "got %s", second.CreatedAt)

	third, err := r.AppendMessage(ctx, &models.Message{QuoteRequestID: q.ID, FromUserID: env.Admin.UserID, Content: "third"})
	require.NoError(t, err)
	assert.True(t, third.CreatedAt.After(second.CreatedAt))

	thread, err := r.ListMessages(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{thread[0].Content, thread[1].Content, thread[2].Content})
}

func TestAppendMessage_UnknownRequest(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}

	_, err := r.AppendMessage(context.Background(), &models.Message{QuoteRequestID: uuid.New(), FromUserID: env.Alice.UserID, Content: "hi"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateStatus_UnknownID(t *testing.T) {
	env := testutil.Seed(t)
	r := &GormRepo{DB: env.DB}

	_, err := r.UpdateStatus(context.Background(), uuid.New(), models.StatusQuoted)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

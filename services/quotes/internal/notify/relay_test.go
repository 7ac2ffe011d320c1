package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

type recorder struct {
	mu   sync.Mutex
	got  []Envelope
	fail error
}

func (r *recorder) Publish(_ context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, env)
	return r.fail
}

func (r *recorder) envelopes() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, len(r.got))
	copy(out, r.got)
	return out
}

func newTestRelay(t *testing.T, pub Publisher) *Relay {
	t.Helper()
	r, err := NewRelay(pub, RelayOptions{PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(time.Second) })
	return r
}

func TestRelay_PublishesAfterCall(t *testing.T) {
	rec := &recorder{}
	r := newTestRelay(t, rec)

	req := fixtureRequest(models.StatusApproved)
	r.StatusChanged(context.Background(), req)
	r.MessagePosted(context.Background(), req, fixtureAdminMessage(), identity.RoleAdmin)

	require.Eventually(t, func() bool { return len(rec.envelopes()) == 2 }, 2*time.Second, 10*time.Millisecond)

	events := map[Event]Envelope{}
	for _, e := range rec.envelopes() {
		events[e.Event] = e
	}
	assert.Equal(t, UserChannel(fixtureOwnerID), events[EventStatusUpdate].Channel)
	assert.Equal(t, UserChannel(fixtureOwnerID), events[EventNewMessage].Channel)
	assert.NotEqual(t, events[EventStatusUpdate].ID, events[EventNewMessage].ID)
}

func TestRelay_PublisherErrorIsSwallowed(t *testing.T) {
	rec := &recorder{fail: errors.New("broker down")}
	r := newTestRelay(t, rec)

	assert.NotPanics(t, func() {
		r.StatusChanged(context.Background(), fixtureRequest(models.StatusRejected))
	})
	require.Eventually(t, func() bool { return len(rec.envelopes()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_SurvivesCanceledRequestContext(t *testing.T) {
	rec := &recorder{}
	r := newTestRelay(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.StatusChanged(ctx, fixtureRequest(models.StatusQuoted))

	require.Eventually(t, func() bool { return len(rec.envelopes()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_ThroughHub(t *testing.T) {
	hub := NewHub(4)
	owner := hub.Subscribe(UserChannel(fixtureOwnerID))
	admins := hub.Subscribe(AdminChannel)
	defer owner.Close()
	defer admins.Close()

	r := newTestRelay(t, hub)

	clientMsg := fixtureAdminMessage()
	clientMsg.FromUser = models.User{ID: fixtureOwnerID, Name: "Dana", Role: "CLIENT"}
	r.MessagePosted(context.Background(), fixtureRequest(models.StatusPending), clientMsg, identity.RoleClient)

	select {
	case env := <-admins.C:
		assert.Equal(t, EventNewMessage, env.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("admin channel got nothing")
	}
	assert.Empty(t, owner.C)
}

func TestFanout(t *testing.T) {
	a, b := &recorder{fail: errors.New("a")}, &recorder{}
	err := Fanout{a, b}.Publish(context.Background(), Envelope{ID: uuid.New()})
	assert.EqualError(t, err, "a")
	assert.Len(t, b.envelopes(), 1)
}

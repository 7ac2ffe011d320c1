package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type RelayOptions struct {
	PoolSize       int
	PublishTimeout time.Duration
	NewID          func() uuid.UUID
	Now            func() time.Time
}

// Relay publishes notifications after the write that caused them has
// committed. Publishing runs on a bounded pool and never reports back to
// the caller; failures are logged.
type Relay struct {
	pub     Publisher
	pool    *ants.Pool
	timeout time.Duration
	newID   func() uuid.UUID
	now     func() time.Time
}

func NewRelay(pub Publisher, opts RelayOptions) (*Relay, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 64
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	pool, err := ants.NewPool(opts.PoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("relay pool: %w", err)
	}

	return &Relay{
		pub:     pub,
		pool:    pool,
		timeout: opts.PublishTimeout,
		newID:   opts.NewID,
		now:     opts.Now,
	}, nil
}

func (r *Relay) MessagePosted(ctx context.Context, req *models.QuoteRequest, msg *models.Message, senderRole identity.Role) {
	env, err := NewMessageEnvelope(req, msg, senderRole, r.newID(), r.now())
	if err != nil {
		logging.FromContext(ctx).Warn("notify_build_failed", "event", EventNewMessage, "error", err)
		return
	}
	r.dispatch(ctx, env)
}

func (r *Relay) StatusChanged(ctx context.Context, req *models.QuoteRequest) {
	env, err := StatusUpdateEnvelope(req, r.newID(), r.now())
	if err != nil {
		logging.FromContext(ctx).Warn("notify_build_failed", "event", EventStatusUpdate, "error", err)
		return
	}
	r.dispatch(ctx, env)
}

func (r *Relay) dispatch(ctx context.Context, env Envelope) {
	l := logging.FromContext(ctx).With("event", env.Event, "channel", env.Channel, "envelope_id", env.ID)
	base := context.WithoutCancel(ctx)

	err := r.pool.Submit(func() {
		pctx, cancel := context.WithTimeout(base, r.timeout)
		defer cancel()
		if err := r.pub.Publish(pctx, env); err != nil {
			l.Warn("notify_publish_failed", "error", err)
			return
		}
		l.Debug("notify_published")
	})
	if err != nil {
		l.Warn("notify_dropped", "reason", "pool unavailable", "error", err)
	}
}

// Close waits up to timeout for in-flight publishes.
func (r *Relay) Close(timeout time.Duration) error {
	return r.pool.ReleaseTimeout(timeout)
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, Envelope) error { return nil }

// Fanout publishes to each publisher in turn and returns the first error.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, env Envelope) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, env); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Publisher = (*Hub)(nil)

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

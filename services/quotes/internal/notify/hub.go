package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// Hub fans envelopes out to in-process subscribers by channel. Delivery
// is best-effort: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Int64
}

type Subscription struct {
	C       <-chan Envelope
	ch      chan Envelope
	channel string
	hub     *Hub
	once    sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(channel string) *Subscription {
	ch := make(chan Envelope, h.buffer)
	s := &Subscription{C: ch, ch: ch, channel: channel, hub: h}

	h.mu.Lock()
	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[channel] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	return s
}

// Close detaches the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if set, ok := h.subs[s.channel]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.channel)
			}
		}
		close(s.ch)
		h.mu.Unlock()
	})
}

func (h *Hub) Publish(_ context.Context, env Envelope) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[env.Channel] {
		select {
		case s.ch <- env:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// CloseAll ends every subscription, letting open streams return.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*Subscription
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
}

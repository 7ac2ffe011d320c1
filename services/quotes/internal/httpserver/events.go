package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/notify"
)

// Events streams the caller's notification channel as server-sent events.
// Admins listen on the shared admin channel, clients on their own.
func (h *QuotesHTTP) Events(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.events")

	who := caller(c)
	if !who.Authenticated() {
		return fail(l, "events_failed", domain.ErrUnauthenticated)
	}
	if h.Hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "events unavailable")
	}

	channel := notify.ChannelFor(who)
	sub := h.Hub.Subscribe(channel)
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	l.Info("events_subscribed", "channel", channel)
	for {
		select {
		case <-ctx.Done():
			l.Info("events_closed", "channel", channel)
			return nil
		case env, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(env)
			if err != nil {
				l.Warn("events_encode_failed", "envelope_id", env.ID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Event, data); err != nil {
				return nil
			}
			res.Flush()
		case <-ping.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

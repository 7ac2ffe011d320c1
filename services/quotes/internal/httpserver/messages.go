package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/transport"
)

func (h *QuotesHTTP) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.post_message")

	var req transport.PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "post_message_failed", fmt.Errorf("%w: invalid body", domain.ErrValidation))
	}
	requestID, err := uuid.Parse(req.QuoteRequestID)
	if err != nil {
		return fail(l, "post_message_failed", fmt.Errorf("%w: quote request", domain.ErrNotFound))
	}

	msg, err := h.Svc.PostMessage(ctx, caller(c), requestID, req.Content)
	if err != nil {
		return fail(l, "post_message_failed", err)
	}

	l.Info("post_message_success", "quote_request_id", requestID, "message_id", msg.ID)
	return c.JSON(http.StatusCreated, transport.NewMessage(msg))
}

func (h *QuotesHTTP) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.list_messages")

	id, err := pathID(c)
	if err != nil {
		return fail(l, "list_messages_failed", err)
	}
	ms, err := h.Svc.ListMessages(ctx, caller(c), id)
	if err != nil {
		return fail(l, "list_messages_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewMessages(ms))
}

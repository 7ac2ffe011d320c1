package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/pkg/logging"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/notify"
	"github.com/Skotchmaster/veranda/services/quotes/internal/repo"
	"github.com/Skotchmaster/veranda/services/quotes/internal/service"
	"github.com/Skotchmaster/veranda/services/quotes/internal/transport"
)

type QuotesHTTP struct {
	Svc       *service.QuoteService
	Hub       *notify.Hub
	KeepAlive time.Duration
}

func caller(c echo.Context) identity.Identity {
	who, err := identity.FromEcho(c)
	if err != nil {
		return identity.Identity{}
	}
	return who
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: quote request", domain.ErrNotFound)
	}
	return id, nil
}

func parseFilter(c echo.Context) (repo.Filter, error) {
	var f repo.Filter
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st, err := service.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if raw := strings.TrimSpace(c.QueryParam("since")); raw != "" {
		t, err := dateparse.ParseIn(raw, time.UTC)
		if err != nil {
			return f, fmt.Errorf("%w: since: %v", domain.ErrValidation, err)
		}
		f.Since = &t
	}
	return f, nil
}

func (h *QuotesHTTP) ListRequests(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.list_requests")

	f, err := parseFilter(c)
	if err != nil {
		return fail(l, "list_requests_failed", err)
	}

	qs, err := h.Svc.ListRequests(ctx, caller(c), f)
	if err != nil {
		return fail(l, "list_requests_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewQuoteRequests(qs))
}

func (h *QuotesHTTP) GetRequest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.get_request")

	id, err := pathID(c)
	if err != nil {
		return fail(l, "get_request_failed", err)
	}
	q, err := h.Svc.GetRequest(ctx, caller(c), id)
	if err != nil {
		return fail(l, "get_request_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewQuoteRequest(q))
}

func (h *QuotesHTTP) CreateRequest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.create_request")

	var req transport.CreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "create_request_failed", fmt.Errorf("%w: invalid body", domain.ErrValidation))
	}

	q, err := h.Svc.CreateRequest(ctx, caller(c), req)
	if err != nil {
		return fail(l, "create_request_failed", err)
	}

	l.Info("create_request_success", "quote_request_id", q.ID, "items", len(q.Items))
	return c.JSON(http.StatusCreated, transport.NewQuoteRequest(q))
}

func (h *QuotesHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.update_status")

	id, err := pathID(c)
	if err != nil {
		return fail(l, "update_status_failed", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_status_failed", fmt.Errorf("%w: invalid body", domain.ErrValidation))
	}

	q, err := h.Svc.UpdateStatus(ctx, caller(c), id, req.Status)
	if err != nil {
		return fail(l, "update_status_failed", err)
	}

	l.Info("update_status_success", "quote_request_id", q.ID, "status", q.Status)
	return c.JSON(http.StatusOK, transport.NewQuoteRequest(q))
}

func (h *QuotesHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.stats")

	st, err := h.Svc.Stats(ctx, caller(c))
	if err != nil {
		return fail(l, "stats_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *QuotesHTTP) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "quotes.export_csv")

	rows, err := h.Svc.ExportRows(ctx, caller(c))
	if err != nil {
		return fail(l, "export_failed", err)
	}
	if rows == nil {
		rows = []transport.ExportRow{}
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fail(l, "export_failed", err)
	}

	name := fmt.Sprintf("quote-requests-%s.csv", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", out)
}

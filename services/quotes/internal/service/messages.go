package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

func (s *QuoteService) PostMessage(ctx context.Context, who identity.Identity, requestID uuid.UUID, content string) (*models.Message, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", domain.ErrValidation)
	}

	req, err := s.Repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "quote request")
	}
	if err := domain.Authorize(who, domain.CapPostMessage, req); err != nil {
		return nil, err
	}

	msg, err := s.Repo.AppendMessage(ctx, &models.Message{
		QuoteRequestID: req.ID,
		FromUserID:     who.UserID,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.MessagePosted(ctx, req, msg, who.Role)
	}
	return msg, nil
}

func (s *QuoteService) ListMessages(ctx context.Context, who identity.Identity, requestID uuid.UUID) ([]models.Message, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	req, err := s.Repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "quote request")
	}
	if err := domain.Authorize(who, domain.CapReadRequest, req); err != nil {
		return nil, err
	}
	return s.Repo.ListMessages(ctx, req.ID)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
	"github.com/Skotchmaster/veranda/services/quotes/internal/repo"
	"github.com/Skotchmaster/veranda/services/quotes/internal/transport"
)

// Notifier is told about committed changes. Implementations must not block.
type Notifier interface {
	MessagePosted(ctx context.Context, req *models.QuoteRequest, msg *models.Message, senderRole identity.Role)
	StatusChanged(ctx context.Context, req *models.QuoteRequest)
}

type QuoteService struct {
	Repo     *repo.GormRepo
	Notifier Notifier
}

func New(r *repo.GormRepo, n Notifier) *QuoteService {
	return &QuoteService{Repo: r, Notifier: n}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return err
}

func (s *QuoteService) CreateRequest(ctx context.Context, who identity.Identity, in transport.CreateRequest) (*models.QuoteRequest, error) {
	if err := domain.Authorize(who, domain.CapCreateRequest, nil); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrValidation)
	}

	items := make([]models.RequestItem, 0, len(in.Items))
	for i, it := range in.Items {
		pid, err := uuid.Parse(strings.TrimSpace(it.ProductID))
		if err != nil {
			return nil, fmt.Errorf("%w: items[%d].productId is not a valid id", domain.ErrValidation, i)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: items[%d].quantity must be at least 1", domain.ErrValidation, i)
		}
		var specs datatypes.JSON
		if raw := strings.TrimSpace(string(it.CustomSpecs)); raw != "" && raw != "null" {
			if !json.Valid([]byte(raw)) {
				return nil, fmt.Errorf("%w: items[%d].customSpecs is not valid JSON", domain.ErrValidation, i)
			}
			specs = datatypes.JSON(raw)
		}
		items = append(items, models.RequestItem{
			ProductID:   pid,
			Quantity:    it.Quantity,
			CustomSpecs: specs,
		})
	}

	var notes *string
	if in.Notes != nil {
		if n := strings.TrimSpace(*in.Notes); n != "" {
			notes = &n
		}
	}

	q := &models.QuoteRequest{
		UserID: who.UserID,
		Status: models.StatusPending,
		Notes:  notes,
		Items:  items,
	}
	return s.Repo.CreateRequest(ctx, q)
}

func (s *QuoteService) ListRequests(ctx context.Context, who identity.Identity, f repo.Filter) ([]models.QuoteRequest, error) {
	if err := domain.Authorize(who, domain.CapListRequests, nil); err != nil {
		return nil, err
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *f.Status)
	}
	return s.Repo.ListRequests(ctx, who, f)
}

func (s *QuoteService) GetRequest(ctx context.Context, who identity.Identity, id uuid.UUID) (*models.QuoteRequest, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	head, err := s.Repo.FindRequest(ctx, id)
	if err != nil {
		return nil, notFound(err, "quote request")
	}
	if err := domain.Authorize(who, domain.CapReadRequest, head); err != nil {
		return nil, err
	}
	q, err := s.Repo.GetRequest(ctx, id)
	if err != nil {
		return nil, notFound(err, "quote request")
	}
	return q, nil
}

// ParseStatus accepts the wire values case-insensitively.
func ParseStatus(raw string) (models.Status, error) {
	st := models.Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrValidation, raw)
	}
	return st, nil
}

func (s *QuoteService) UpdateStatus(ctx context.Context, who identity.Identity, id uuid.UUID, raw string) (*models.QuoteRequest, error) {
	if err := domain.Authorize(who, domain.CapUpdateStatus, nil); err != nil {
		return nil, err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	q, err := s.Repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, notFound(err, "quote request")
	}

	if s.Notifier != nil {
		s.Notifier.StatusChanged(ctx, q)
	}
	return q, nil
}

func (s *QuoteService) Stats(ctx context.Context, who identity.Identity) (repo.Stats, error) {
	if err := domain.Authorize(who, domain.CapViewStats, nil); err != nil {
		return repo.Stats{}, err
	}
	return s.Repo.Stats(ctx)
}

func (s *QuoteService) ExportRows(ctx context.Context, who identity.Identity) ([]transport.ExportRow, error) {
	if err := domain.Authorize(who, domain.CapExport, nil); err != nil {
		return nil, err
	}
	qs, err := s.Repo.ListRequests(ctx, who, repo.Filter{})
	if err != nil {
		return nil, err
	}
	return transport.NewExportRows(qs), nil
}

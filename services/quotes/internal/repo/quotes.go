package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/domain"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

type Filter struct {
	Status *models.Status
	Since  *time.Time
}

type Stats struct {
	TotalRequests   int64 `json:"totalRequests"`
	PendingRequests int64 `json:"pendingRequests"`
	TotalProducts   int64 `json:"totalProducts"`
	UniqueClients   int64 `json:"uniqueClients"`
}

func withGraph(q *gorm.DB) *gorm.DB {
	return q.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product.Category").
		Preload("Items.Product.Material").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Messages.FromUser")
}

func load(tx *gorm.DB, id uuid.UUID) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	if err := withGraph(tx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateRequest verifies every referenced product and writes the request
// with its items in one transaction.
func (r *GormRepo) CreateRequest(ctx context.Context, q *models.QuoteRequest) (*models.QuoteRequest, error) {
	var out *models.QuoteRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, 0, len(q.Items))
		seen := make(map[uuid.UUID]struct{}, len(q.Items))
		for _, it := range q.Items {
			if _, ok := seen[it.ProductID]; ok {
				continue
			}
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}

		var found []uuid.UUID
		if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return err
		}
		if len(found) != len(ids) {
			have := make(map[uuid.UUID]struct{}, len(found))
			for _, id := range found {
				have[id] = struct{}{}
			}
			for _, id := range ids {
				if _, ok := have[id]; !ok {
					return fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
				}
			}
		}

		items := q.Items
		q.Items = nil
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteRequestID = q.ID
			items[i].Position = i
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}

		loaded, err := load(tx, q.ID)
		if err != nil {
			return err
		}
		out = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListRequests returns requests visible to who, newest first. Clients see
// only their own requests.
func (r *GormRepo) ListRequests(ctx context.Context, who identity.Identity, f Filter) ([]models.QuoteRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.QuoteRequest{})
	if !who.IsAdmin() {
		q = q.Where("user_id = ?", who.UserID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Since != nil {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}

	var out []models.QuoteRequest
	if err := withGraph(q).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) GetRequest(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	return load(r.DB.WithContext(ctx), id)
}

// FindRequest loads the bare row, enough for ownership decisions.
func (r *GormRepo) FindRequest(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	if err := r.DB.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *GormRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.QuoteRequest, error) {
	var out *models.QuoteRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.QuoteRequest{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		loaded, err := load(tx, id)
		if err != nil {
			return err
		}
		out = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppendMessage serializes appends per thread on the parent row lock and
// stamps each message strictly after the thread's latest one, so thread
// order is commit order even when instance clocks disagree.
func (r *GormRepo) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	db := r.DB.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var head models.QuoteRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&head, "id = ?", m.QuoteRequestID).Error; err != nil {
			return err
		}

		if m.CreatedAt.IsZero() {
			now := time.Now().UTC().Truncate(time.Microsecond)
			var last models.Message
			err := tx.Select("created_at").
				Where("quote_request_id = ?", m.QuoteRequestID).
				Order("created_at DESC").
				Take(&last).Error
			switch {
			case err == nil:
				if !now.After(last.CreatedAt) {
					now = last.CreatedAt.Add(time.Microsecond)
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
			m.CreatedAt = now
		}

		return tx.Omit(clause.Associations).Create(m).Error
	})
	if err != nil {
		return nil, err
	}

	var out models.Message
	if err := db.Preload("FromUser").First(&out, "id = ?", m.ID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GormRepo) ListMessages(ctx context.Context, requestID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	err := r.DB.WithContext(ctx).
		Preload("FromUser").
		Where("quote_request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) Stats(ctx context.Context) (Stats, error) {
	db := r.DB.WithContext(ctx)
	var s Stats

	if err := db.Model(&models.QuoteRequest{}).Count(&s.TotalRequests).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.QuoteRequest{}).Where("status = ?", models.StatusPending).Count(&s.PendingRequests).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.Product{}).Count(&s.TotalProducts).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.QuoteRequest{}).Distinct("user_id").Count(&s.UniqueClients).Error; err != nil {
		return Stats{}, err
	}
	return s, nil
}

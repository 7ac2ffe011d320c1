package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusQuoted   Status = "QUOTED"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

var Statuses = []Status{StatusPending, StatusQuoted, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQuoted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type QuoteRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Status    Status    `gorm:"type:varchar(16);index;not null;default:PENDING"`
	Notes     *string
	CreatedAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time `gorm:"not null"`

	User     User          `gorm:"foreignKey:UserID"`
	Items    []RequestItem `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`
	Messages []Message     `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`
}

func (q *QuoteRequest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *QuoteRequest) OwnerID() uuid.UUID { return q.UserID }

func (QuoteRequest) TableName() string { return "quote_requests" }

type RequestItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuoteRequestID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Position       int       `gorm:"not null;default:0"`
	Quantity       int       `gorm:"not null;check:quantity > 0"`
	CustomSpecs    datatypes.JSON

	Product Product `gorm:"foreignKey:ProductID"`
}

func (i *RequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (RequestItem) TableName() string { return "request_items" }

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuoteRequestID uuid.UUID `gorm:"type:uuid;index:idx_messages_thread,priority:1;not null"`
	FromUserID     uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index:idx_messages_thread,priority:2;not null"`

	FromUser User `gorm:"foreignKey:FromUserID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (Message) TableName() string { return "messages" }

// Owned lists the tables this service migrates. Users and catalog tables
// belong to the auth and catalog services.
func Owned() []any {
	return []any{&QuoteRequest{}, &RequestItem{}, &Message{}}
}

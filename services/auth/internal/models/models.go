package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/veranda/pkg/identity"
)

type User struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey"             json:"id"`
	Email        string        `gorm:"uniqueIndex;not null"             json:"email"`
	Name         string        `gorm:"not null"                         json:"name"`
	CompanyName  *string       `                                        json:"companyName"`
	ContactInfo  *string       `                                        json:"contactInfo"`
	PasswordHash string        `gorm:"not null"                         json:"-"`
	Role         identity.Role `gorm:"type:varchar(16);not null"        json:"role"`
	CreatedAt    time.Time     `                                        json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string { return "users" }

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	ExpiresAt int64     `gorm:"not null"               json:"expires_at"`
	Revoked   bool      `gorm:"default:false"          json:"revoked"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/veranda/pkg/dbtypes"
)

type Category struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	Name          string    `gorm:"not null"                json:"name"`
	Description   *string   `                               json:"description"`
	ImageURI      *string   `                               json:"imageUri"`
	IsActive      bool      `gorm:"not null"               json:"isActive"`
	CategoryOrder int       `gorm:"not null;default:0;index" json:"categoryOrder"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Category) TableName() string { return "categories" }

type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;index"       json:"name"`
	Description *string   `                            json:"description"`
	ImageURI    *string   `                            json:"imageUri"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (Material) TableName() string { return "materials" }

type Product struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"        json:"id"`
	Name             string              `gorm:"not null"                    json:"name"`
	Description      string              `gorm:"not null;default:''"         json:"description"`
	CategoryID       *uuid.UUID          `gorm:"type:uuid;index"             json:"categoryId"`
	MaterialID       *uuid.UUID          `gorm:"type:uuid;index"             json:"materialId"`
	ImageURI         *string             `                                   json:"imageUri"`
	ProductImageURLs dbtypes.StringArray `                                   json:"productImageUrls"`
	Specs            datatypes.JSON      `                                   json:"specs"`
	PriceRange       string              `gorm:"not null;default:''"         json:"priceRange"`
	Stock            int                 `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Availability     bool                `gorm:"not null;index"              json:"availability"`
	CreatedAt        time.Time           `gorm:"index"                       json:"createdAt"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Material *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ProductImageURLs == nil {
		p.ProductImageURLs = dbtypes.StringArray{}
	}
	return nil
}

func (Product) TableName() string { return "products" }

func All() []any {
	return []any{&Category{}, &Material{}, &Product{}}
}

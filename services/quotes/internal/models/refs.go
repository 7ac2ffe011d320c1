package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Skotchmaster/veranda/pkg/dbtypes"
)

// Read-side views of tables owned by other services.

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email       string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"not null"`
	CompanyName *string
	ContactInfo *string
	Role        string `gorm:"type:varchar(16);not null"`
}

func (User) TableName() string { return "users" }

type Category struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"not null"`
	Description   *string
	ImageURI      *string
	IsActive      bool `gorm:"not null;default:true"`
	CategoryOrder int  `gorm:"not null;default:0"`
}

func (Category) TableName() string { return "categories" }

type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description *string
	ImageURI    *string
}

func (Material) TableName() string { return "materials" }

type Product struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"not null"`
	Description      string
	CategoryID       *uuid.UUID `gorm:"type:uuid"`
	MaterialID       *uuid.UUID `gorm:"type:uuid"`
	ImageURI         *string
	ProductImageURLs dbtypes.StringArray
	Specs            datatypes.JSON
	PriceRange       string
	Stock            int
	Availability     bool
	CreatedAt        time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Material *Material `gorm:"foreignKey:MaterialID"`
}

func (Product) TableName() string { return "products" }

// Referenced returns every model a test database needs to back a full
// request graph.
func Referenced() []any {
	return []any{&User{}, &Category{}, &Material{}, &Product{}}
}

// Package dbtypes holds column types shared by the services.
package dbtypes

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray is a native text[] on postgres and the same array literal
// stored as text elsewhere.
type StringArray pq.StringArray

func (StringArray) GormDataType() string { return "string_array" }

func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src any) error {
	return (*pq.StringArray)(a).Scan(src)
}

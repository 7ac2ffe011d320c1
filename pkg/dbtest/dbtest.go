// Package dbtest opens throwaway in-memory databases for package tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/veranda/pkg/db"
)

// Open returns a private shared-cache sqlite database migrated with models.
// The connection is closed when the test ends.
func Open(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), pkgdb.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps transactions and plain reads on the same database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models...))

	t.Cleanup(func() {
		_ = pkgdb.Close(db)
	})
	return db
}

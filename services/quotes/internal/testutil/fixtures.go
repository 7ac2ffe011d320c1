// Package testutil seeds quotes test databases.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/veranda/pkg/dbtest"
	"github.com/Skotchmaster/veranda/pkg/identity"
	"github.com/Skotchmaster/veranda/services/quotes/internal/models"
)

type Env struct {
	DB       *gorm.DB
	Alice    identity.Identity
	Bob      identity.Identity
	Admin    identity.Identity
	Bench    models.Product
	Lounger  models.Product
	Category models.Category
	Material models.Material
}

func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, append(models.Referenced(), models.Owned()...)...)
}

func strp(s string) *string { return &s }

// Seed creates two clients, one admin and two products.
func Seed(t *testing.T) *Env {
	t.Helper()
	db := OpenDB(t)

	env := &Env{DB: db}
	mkUser := func(name, email string, role identity.Role, company *string) identity.Identity {
		u := models.User{ID: uuid.New(), Name: name, Email: email, Role: string(role), CompanyName: company}
		require.NoError(t, db.Create(&u).Error)
		return identity.Identity{UserID: u.ID, Role: role}
	}
	env.Alice = mkUser("Alice", "alice@terrace.test", identity.RoleClient, strp("Terrace Ltd"))
	env.Bob = mkUser("Bob", "bob@garden.test", identity.RoleClient, nil)
	env.Admin = mkUser("Ops", "ops@veranda.test", identity.RoleAdmin, nil)

	env.Category = models.Category{ID: uuid.New(), Name: "Benches", IsActive: true}
	env.Material = models.Material{ID: uuid.New(), Name: "Teak"}
	require.NoError(t, db.Create(&env.Category).Error)
	require.NoError(t, db.Create(&env.Material).Error)

	env.Bench = models.Product{
		ID: uuid.New(), Name: "Harbour Bench", PriceRange: "$400-$600", Stock: 4, Availability: true,
		CategoryID: &env.Category.ID, MaterialID: &env.Material.ID,
	}
	env.Lounger = models.Product{ID: uuid.New(), Name: "Sun Lounger", PriceRange: "$250", Stock: 10, Availability: true}
	require.NoError(t, db.Create(&env.Bench).Error)
	require.NoError(t, db.Create(&env.Lounger).Error)

	return env
}

// Package identity carries the resolved caller {userId, role} from the auth
// boundary into the services.
package identity

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

var ErrNoIdentity = errors.New("no resolved identity")

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

type Identity struct {
	UserID uuid.UUID
	Role   Role
}

func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil && i.Role.Valid()
}

func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == RoleAdmin
}

// Set stores the token subject and role on the echo context.
func Set(c echo.Context, subject, role string) {
	c.Set(CtxUserID, subject)
	c.Set(CtxRole, role)
}

// FromEcho returns the identity placed on the context by the auth
// middleware, or ErrNoIdentity.
func FromEcho(c echo.Context) (Identity, error) {
	sub, _ := c.Get(CtxUserID).(string)
	role, _ := c.Get(CtxRole).(string)
	if sub == "" {
		return Identity{}, ErrNoIdentity
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, ErrNoIdentity
	}
	who := Identity{UserID: id, Role: Role(role)}
	if !who.Authenticated() {
		return Identity{}, ErrNoIdentity
	}
	return who, nil
}

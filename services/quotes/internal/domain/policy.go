package domain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/veranda/pkg/identity"
)

type Capability string

const (
	CapCreateRequest Capability = "create_request"
	CapListRequests  Capability = "list_requests"
	CapReadRequest   Capability = "read_request"
	CapUpdateStatus  Capability = "update_status"
	CapPostMessage   Capability = "post_message"
	CapViewStats     Capability = "view_stats"
	CapExport        Capability = "export_requests"
)

// Ownable is implemented by resources that belong to exactly one user.
type Ownable interface {
	OwnerID() uuid.UUID
}

// Authorize is the single decision point for every quotes operation.
// Resource-scoped capabilities need a non-nil resource unless the caller
// is an admin.
func Authorize(who identity.Identity, capability Capability, resource Ownable) error {
	if !who.Authenticated() {
		return ErrUnauthenticated
	}

	switch capability {
	case CapCreateRequest, CapListRequests:
		return nil

	case CapReadRequest, CapPostMessage:
		if who.IsAdmin() {
			return nil
		}
		if resource != nil && resource.OwnerID() == who.UserID {
			return nil
		}
		return fmt.Errorf("%w: %s requires owner or admin", ErrForbidden, capability)

	case CapUpdateStatus, CapViewStats, CapExport:
		if who.IsAdmin() {
			return nil
		}
		return fmt.Errorf("%w: %s requires admin", ErrForbidden, capability)
	}

	return fmt.Errorf("%w: unknown capability %q", ErrForbidden, capability)
}

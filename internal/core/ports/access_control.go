package ports

import "context"

// Roles required by the privileged operations of the engine.
const (
	// RoleQueueAdmin may change a queue's fee and minimum-amount
	// configuration.
	RoleQueueAdmin = "queue_admin"
	// RoleTreasury may sweep native gas out of a queue's custody.
	RoleTreasury = "treasury"
)

// AccessController is the external role-based access control collaborator.
type AccessController interface {
	// CheckRole returns nil if account holds role, otherwise a
	// domain.UnauthorizedError.
	CheckRole(ctx context.Context, account, role string) error
}

package auth

import (
	"github.com/go-faster/errors"

	"github.com/webkite/storefront/internal/domain/user"
)

// ErrForbidden is returned when an authenticated caller lacks the role an
// operation requires.
var ErrForbidden = errors.New("forbidden")

// Identity is the resolved caller passed into every authorization-checked
// operation. A zero UserID with RoleCustomer represents a guest.
type Identity struct {
	UserID int64
	Role   user.Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == user.RoleAdmin }

// Require checks the caller's role against the role an operation demands.
// The only privileged role is admin: requiring admin means the caller must
// be admin exactly.
func Require(callerRole, requiredRole user.Role) error {
	if requiredRole == user.RoleAdmin && callerRole != user.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

package auth

import "errors"

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer can list devices, read rules and grab snapshots.
	RoleViewer Role = "viewer"

	// RoleOperator can additionally edit ROI rules.
	RoleOperator Role = "operator"

	// RoleAdmin has full control: local device management and the audit log.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Identity is the caller a token speaks for. Tenant scopes every device
// and rule operation made with it.
type Identity struct {
	Subject string `json:"sub"`
	Tenant  string `json:"tenant"`
	Role    Role   `json:"role"`
}

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrForbidden    = errors.New("insufficient permissions")
)

package shared

import "context"

// Role identifies the caller's privilege level, supplied by the upstream auth
// gateway.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AuthContext carries the authenticated caller identity for every operation.
type AuthContext struct {
	UserID int64
	Role   Role
}

// Elevated reports whether the caller may read and link records across owners.
func (a AuthContext) Elevated() bool {
	return a.Role == RoleSuperAdmin
}

type authContextKey struct{}

// ContextWithAuth stores the auth context in ctx.
func ContextWithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFromContext extracts the auth context; ok is false when absent.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey{}).(AuthContext)
	return auth, ok
}

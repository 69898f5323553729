package auth

import "context"

// IdentityStore persists identities and their role assignments.
type IdentityStore interface {
	// FindByEmail returns the identity with its roles and their permissions.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	// FindByID returns the identity; roles are loaded only when withRoles is set.
	FindByID(ctx context.Context, id string, withRoles bool) (*Identity, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	// Create inserts the identity and links every role in identity.Roles by ID.
	Create(ctx context.Context, identity *Identity) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	AssignRole(ctx context.Context, identityID string, roleID int64) error
}

// RoleStore manages roles.
type RoleStore interface {
	CreateRole(ctx context.Context, name string, permissionIDs []int64) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// PermissionStore manages the permission catalog.
type PermissionStore interface {
	CreatePermission(ctx context.Context, name string) (Permission, error)
	// EnsurePermissions inserts the names that do not exist yet.
	EnsurePermissions(ctx context.Context, names []string) error
	ListPermissions(ctx context.Context) ([]Permission, error)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// RBACService exposes the administrative role and permission operations.
type RBACService struct {
	roles       RoleStore
	permissions PermissionStore
	identities  IdentityStore
	logger      zerolog.Logger
}

func NewRBACService(roles RoleStore, permissions PermissionStore, identities IdentityStore, logger zerolog.Logger) (*RBACService, error) {
	if roles == nil || permissions == nil || identities == nil {
		return nil, errors.New("rbac stores are required")
	}
	return &RBACService{
		roles:       roles,
		permissions: permissions,
		identities:  identities,
		logger:      logger.With().Str("component", "rbac").Logger(),
	}, nil
}

// CreateRole creates a role granting the permissions with the given ids.
// Unknown permission ids are ignored.
func (s *RBACService) CreateRole(ctx context.Context, name string, permissionIDs []int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role, err := s.roles.CreateRole(ctx, name, dedupeIDs(permissionIDs))
	if err != nil {
		return Role{}, err
	}
	s.logger.Info().Int64("role_id", role.ID).Str("name", role.Name).Int("permissions", len(role.Permissions)).Msg("role created")
	return role, nil
}

func (s *RBACService) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roles.ListRoles(ctx)
}

func (s *RBACService) CreatePermission(ctx context.Context, name string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	perm, err := s.permissions.CreatePermission(ctx, name)
	if err != nil {
		return Permission{}, err
	}
	s.logger.Info().Int64("permission_id", perm.ID).Str("name", perm.Name).Msg("permission created")
	return perm, nil
}

func (s *RBACService) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.permissions.ListPermissions(ctx)
}

// AssignRole grants the named role to an existing identity.
func (s *RBACService) AssignRole(ctx context.Context, userID, roleName string) (Role, error) {
	userID = strings.TrimSpace(userID)
	roleName = strings.TrimSpace(roleName)
	if userID == "" || roleName == "" {
		return Role{}, fmt.Errorf("%w: user_id and role are required", ErrInvalidInput)
	}
	if _, err := s.identities.FindByID(ctx, userID, false); err != nil {
		return Role{}, err
	}
	role, err := s.roles.FindRoleByName(ctx, roleName)
	if err != nil {
		return Role{}, err
	}
	if err := s.identities.AssignRole(ctx, userID, role.ID); err != nil {
		return Role{}, err
	}
	s.logger.Info().Str("user_id", userID).Str("role", role.Name).Msg("role assigned")
	return role, nil
}

func dedupeIDs(values []int64) []int64 {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(values))
	result := make([]int64, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"eventdesk.org/internal/ids"
)

// AdminAccount describes the administrative identity created on first boot.
type AdminAccount struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Seeder installs the builtin permission catalog, roles and admin identity.
// Running it again against a seeded store changes nothing.
type Seeder struct {
	identities  IdentityStore
	roles       RoleStore
	permissions PermissionStore
	logger      zerolog.Logger
}

func NewSeeder(identities IdentityStore, roles RoleStore, permissions PermissionStore, logger zerolog.Logger) *Seeder {
	return &Seeder{
		identities:  identities,
		roles:       roles,
		permissions: permissions,
		logger:      logger.With().Str("component", "seed").Logger(),
	}
}

// Run seeds permissions, then roles, then the admin identity.
func (s *Seeder) Run(ctx context.Context, admin AdminAccount) error {
	if err := s.permissions.EnsurePermissions(ctx, BuiltinPermissions); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := s.seedAdmin(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	catalog, err := s.permissions.ListPermissions(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]int64, len(catalog))
	for _, p := range catalog {
		byName[p.Name] = p.ID
	}

	for _, def := range BuiltinRoles {
		_, err := s.roles.FindRoleByName(ctx, def.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		permIDs := make([]int64, 0, len(def.Permissions))
		for _, name := range def.Permissions {
			if id, ok := byName[name]; ok {
				permIDs = append(permIDs, id)
			}
		}
		if _, err := s.roles.CreateRole(ctx, def.Name, permIDs); err != nil {
			return err
		}
		s.logger.Info().Str("role", def.Name).Msg("role seeded")
	}
	return nil
}

func (s *Seeder) seedAdmin(ctx context.Context, admin AdminAccount) error {
	email := NormalizeEmail(admin.Email)
	existing, err := s.identities.FindByEmail(ctx, email)
	if err == nil {
		s.logger.Info().Str("email", existing.Email).Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	role, err := s.roles.FindRoleByName(ctx, RoleAdmin)
	if err != nil {
		return fmt.Errorf("admin role not found: %w", err)
	}
	hash, err := HashPassword(admin.Password)
	if err != nil {
		return err
	}
	identity := &Identity{
		ID:           ids.NewIdentityID(),
		FirstName:    admin.FirstName,
		LastName:     admin.LastName,
		Email:        email,
		PasswordHash: hash,
		Roles:        []Role{role},
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return err
	}
	s.logger.Info().Str("email", email).Msg("default admin user created")
	return nil
}

package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var (
	_ IdentityStore   = (*MemoryStore)(nil)
	_ RoleStore       = (*MemoryStore)(nil)
	_ PermissionStore = (*MemoryStore)(nil)
)

// MemoryStore keeps identities, roles and permissions in process memory. It
// backs the server when no database is configured and is used by tests.
type MemoryStore struct {
	mu          sync.RWMutex
	identities  map[string]*Identity
	byEmail     map[string]string
	assignments map[string][]int64
	roles       map[int64]*memoryRole
	permissions map[int64]Permission
	nextRoleID  int64
	nextPermID  int64
}

type memoryRole struct {
	id      int64
	name    string
	permIDs []int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities:  make(map[string]*Identity),
		byEmail:     make(map[string]string),
		assignments: make(map[string][]int64),
		roles:       make(map[int64]*memoryRole),
		permissions: make(map[int64]Permission),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.identityLocked(id, true), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string, withRoles bool) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.identities[id]; !ok {
		return nil, ErrNotFound
	}
	return s.identityLocked(id, withRoles), nil
}

func (s *MemoryStore) EmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[NormalizeEmail(email)]
	return ok, nil
}

func (s *MemoryStore) Create(_ context.Context, identity *Identity) error {
	if identity == nil || identity.ID == "" {
		return fmt.Errorf("%w: identity id is required", ErrInvalidInput)
	}
	email := NormalizeEmail(identity.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return ErrAlreadyExists
	}
	if _, ok := s.identities[identity.ID]; ok {
		return ErrAlreadyExists
	}
	for _, r := range identity.Roles {
		if _, ok := s.roles[r.ID]; !ok {
			return fmt.Errorf("%w: role %d", ErrNotFound, r.ID)
		}
	}
	stored := *identity
	stored.Email = email
	stored.Roles = nil
	s.identities[stored.ID] = &stored
	s.byEmail[email] = stored.ID
	for _, r := range identity.Roles {
		s.assignments[stored.ID] = appendUnique(s.assignments[stored.ID], r.ID)
	}
	return nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return ErrNotFound
	}
	identity.PasswordHash = passwordHash
	return nil
}

func (s *MemoryStore) AssignRole(_ context.Context, identityID string, roleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identityID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	s.assignments[identityID] = appendUnique(s.assignments[identityID], roleID)
	return nil
}

func (s *MemoryStore) CreateRole(_ context.Context, name string, permissionIDs []int64) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.name == name {
			return Role{}, ErrAlreadyExists
		}
	}
	s.nextRoleID++
	role := &memoryRole{id: s.nextRoleID, name: name}
	for _, pid := range permissionIDs {
		if _, ok := s.permissions[pid]; ok {
			role.permIDs = appendUnique(role.permIDs, pid)
		}
	}
	s.roles[role.id] = role
	return s.roleLocked(role), nil
}

func (s *MemoryStore) FindRoleByName(_ context.Context, name string) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.name == name {
			return s.roleLocked(r), nil
		}
	}
	return Role{}, ErrNotFound
}

func (s *MemoryStore) ListRoles(_ context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, s.roleLocked(r))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (s *MemoryStore) CreatePermission(_ context.Context, name string) (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permissions {
		if p.Name == name {
			return Permission{}, ErrAlreadyExists
		}
	}
	return s.insertPermissionLocked(name), nil
}

func (s *MemoryStore) EnsurePermissions(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]struct{}, len(s.permissions))
	for _, p := range s.permissions {
		existing[p.Name] = struct{}{}
	}
	for _, name := range names {
		if _, ok := existing[name]; ok {
			continue
		}
		s.insertPermissionLocked(name)
		existing[name] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) ListPermissions(_ context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := make([]Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms, nil
}

func (s *MemoryStore) insertPermissionLocked(name string) Permission {
	s.nextPermID++
	p := Permission{ID: s.nextPermID, Name: name}
	s.permissions[p.ID] = p
	return p
}

func (s *MemoryStore) identityLocked(id string, withRoles bool) *Identity {
	out := *s.identities[id]
	out.Roles = nil
	if withRoles {
		for _, rid := range s.assignments[id] {
			if r, ok := s.roles[rid]; ok {
				out.Roles = append(out.Roles, s.roleLocked(r))
			}
		}
	}
	return &out
}

func (s *MemoryStore) roleLocked(r *memoryRole) Role {
	role := Role{ID: r.id, Name: r.name, Permissions: []Permission{}}
	for _, pid := range r.permIDs {
		if p, ok := s.permissions[pid]; ok {
			role.Permissions = append(role.Permissions, p)
		}
	}
	return role
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

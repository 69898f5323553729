package auth

import "sort"

// Permission is an atomic named capability such as CREATE_EVENT.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Role groups permissions and is shared by many identities.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// Identity is a registered account. PasswordHash never leaves the process.
type Identity struct {
	ID           string `json:"userId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Roles        []Role `json:"roles,omitempty"`
}

// RoleNames returns the names of the roles held by the identity.
func (i *Identity) RoleNames() []string {
	if i == nil || len(i.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(i.Roles))
	for _, r := range i.Roles {
		names = append(names, r.Name)
	}
	return names
}

// EffectivePermissions is the union of the permissions of every held role.
// It is recomputed on each call.
func (i *Identity) EffectivePermissions() map[string]struct{} {
	set := make(map[string]struct{})
	if i == nil {
		return set
	}
	for _, r := range i.Roles {
		for _, p := range r.Permissions {
			set[p.Name] = struct{}{}
		}
	}
	return set
}

// PermissionNames returns EffectivePermissions sorted by name.
func (i *Identity) PermissionNames() []string {
	set := i.EffectivePermissions()
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HasPermission reports whether any held role grants the named permission.
func (i *Identity) HasPermission(name string) bool {
	_, ok := i.EffectivePermissions()[name]
	return ok
}

// View is the outward representation used by login, registration and profile responses.
func (i *Identity) View() UserView {
	return UserView{
		UserID:    i.ID,
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Email:     i.Email,
	}
}

// UserView is an identity without secret material or role data.
type UserView struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// AuthenticatedUser is the identity attached to a request once the gate has allowed it.
type AuthenticatedUser struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

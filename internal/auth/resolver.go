package auth

import (
	"context"
	"fmt"
	"strings"
)

// Resolver maps an email or identifier to a full identity record.
type Resolver struct {
	store IdentityStore
}

// NewResolver constructs a Resolver over the identity store.
func NewResolver(store IdentityStore) *Resolver {
	return &Resolver{store: store}
}

// FindByEmail loads the identity with roles, as needed by login.
func (r *Resolver) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return r.find(r.store.FindByEmail(ctx, email))
}

// FindByID loads the identity without roles.
func (r *Resolver) FindByID(ctx context.Context, id string) (*Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return r.find(r.store.FindByID(ctx, id, false))
}

// FindByIDWithRoles loads the identity together with its roles.
func (r *Resolver) FindByIDWithRoles(ctx context.Context, id string) (*Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return r.find(r.store.FindByID(ctx, id, true))
}

func (r *Resolver) find(identity *Identity, err error) (*Identity, error) {
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrNotFound
	}
	return identity, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

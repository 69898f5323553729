package auth

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRBAC(t *testing.T) (*RBACService, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewRBACService(store, store, store, zerolog.Nop())
	require.NoError(t, err)
	return svc, store
}

func TestNewRBACServiceRequiresStores(t *testing.T) {
	_, err := NewRBACService(nil, nil, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestRBACCreateRoleWithPermissions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRBAC(t)

	view, err := svc.CreatePermission(ctx, " VIEW_EVENT ")
	require.NoError(t, err)
	assert.Equal(t, "VIEW_EVENT", view.Name)
	edit, err := svc.CreatePermission(ctx, "EDIT_EVENT")
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, "Editor", []int64{view.ID, edit.ID, view.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, "Editor", role.Name)
	assert.ElementsMatch(t, []Permission{view, edit}, role.Permissions)

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, role, roles[0])

	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Permission{view, edit}, perms)
}

func TestRBACRejectsDuplicatesAndBlankNames(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRBAC(t)

	_, err := svc.CreateRole(ctx, "  ", nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreatePermission(ctx, "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateRole(ctx, "Viewer", nil)
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, "Viewer", nil)
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.CreatePermission(ctx, "VIEW_TASK")
	require.NoError(t, err)
	_, err = svc.CreatePermission(ctx, "VIEW_TASK")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRBACAssignRole(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestRBAC(t)
	_, err := svc.CreateRole(ctx, RoleTaskManager, nil)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &Identity{ID: "u1", Email: "u1@example.com"}))

	role, err := svc.AssignRole(ctx, "u1", RoleTaskManager)
	require.NoError(t, err)
	assert.Equal(t, RoleTaskManager, role.Name)

	// assigning twice keeps a single grant
	_, err = svc.AssignRole(ctx, "u1", RoleTaskManager)
	require.NoError(t, err)

	identity, err := store.FindByID(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleTaskManager}, identity.RoleNames())

	_, err = svc.AssignRole(ctx, "missing", RoleTaskManager)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AssignRole(ctx, "u1", "Ghost")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AssignRole(ctx, "", RoleTaskManager)
	require.ErrorIs(t, err, ErrInvalidInput)
}

package httpapi

import (
	"errors"
	"net/http"

	"eventdesk.org/internal/auth"
)

type createRoleRequest struct {
	Name        string  `json:"name" validate:"required"`
	Permissions []int64 `json:"permissions"`
}

type createPermissionRequest struct {
	Name string `json:"name" validate:"required"`
}

type assignRoleRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	role, err := a.rbac.CreateRole(r.Context(), req.Name, req.Permissions)
	if err != nil {
		handleRBACError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "rbac.role.create", map[string]any{
		"role_id":     role.ID,
		"name":        role.Name,
		"permissions": len(role.Permissions),
	})
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.rbac.ListRoles(r.Context())
	if err != nil {
		handleRBACError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	perm, err := a.rbac.CreatePermission(r.Context(), req.Name)
	if err != nil {
		handleRBACError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "rbac.permission.create", map[string]any{
		"permission_id": perm.ID,
		"name":          perm.Name,
	})
	writeJSON(w, http.StatusCreated, perm)
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.rbac.ListPermissions(r.Context())
	if err != nil {
		handleRBACError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (a *API) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	role, err := a.rbac.AssignRole(r.Context(), req.UserID, req.Role)
	if err != nil {
		handleRBACError(w, r, err)
		return
	}
	a.auditEvent(r.Context(), "rbac.user.assign_role", map[string]any{
		"target_user_id": req.UserID,
		"role":           role.Name,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"userId": req.UserID,
		"role":   role,
	})
}

// decodeValid decodes and validates the body, answering 400 on failure.
func (a *API) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, validationError(err))
		return false
	}
	return true
}

func handleRBACError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "resource already exists")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "rbac operation failed")
	}
}

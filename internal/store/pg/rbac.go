package pg

import (
	"context"
	"database/sql"

	"eventdesk.org/internal/auth"
)

const rolesWithPermissions = `
	select r.id, r.name, p.id, p.name
	from roles r
	left join role_permissions rp on rp.role_id = r.id
	left join permissions p on p.id = rp.permission_id
`

// CreateRole inserts the role and links the permission ids that exist.
func (s *Store) CreateRole(ctx context.Context, name string, permissionIDs []int64) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errUnavailable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return auth.Role{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var roleID int64
	if err := tx.QueryRowContext(ctx,
		`insert into roles (name) values ($1) returning id`, name).Scan(&roleID); err != nil {
		if isPgCode(err, pgErrUniqueViolation) {
			return auth.Role{}, auth.ErrAlreadyExists
		}
		return auth.Role{}, err
	}
	for _, pid := range permissionIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id)
			select $1, id from permissions where id = $2
			on conflict do nothing
		`, roleID, pid); err != nil {
			return auth.Role{}, err
		}
	}

	rows, err := tx.QueryContext(ctx, rolesWithPermissions+`where r.id = $1 order by p.id`, roleID)
	if err != nil {
		return auth.Role{}, err
	}
	roles, err := collectRoles(rows)
	if err != nil {
		return auth.Role{}, err
	}
	if len(roles) == 0 {
		return auth.Role{}, auth.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return auth.Role{}, err
	}
	return roles[0], nil
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errUnavailable
	}
	rows, err := s.db.QueryContext(ctx, rolesWithPermissions+`where r.name = $1 order by p.id`, name)
	if err != nil {
		return auth.Role{}, err
	}
	roles, err := collectRoles(rows)
	if err != nil {
		return auth.Role{}, err
	}
	if len(roles) == 0 {
		return auth.Role{}, auth.ErrNotFound
	}
	return roles[0], nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	if s.db == nil {
		return nil, errUnavailable
	}
	rows, err := s.db.QueryContext(ctx, rolesWithPermissions+`order by r.id, p.id`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func (s *Store) CreatePermission(ctx context.Context, name string) (auth.Permission, error) {
	if s.db == nil {
		return auth.Permission{}, errUnavailable
	}
	perm := auth.Permission{Name: name}
	err := s.db.QueryRowContext(ctx,
		`insert into permissions (name) values ($1) returning id`, name).Scan(&perm.ID)
	if err != nil {
		if isPgCode(err, pgErrUniqueViolation) {
			return auth.Permission{}, auth.ErrAlreadyExists
		}
		return auth.Permission{}, err
	}
	return perm, nil
}

func (s *Store) EnsurePermissions(ctx context.Context, names []string) error {
	if s.db == nil {
		return errUnavailable
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`insert into permissions (name) values ($1) on conflict (name) do nothing`, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	if s.db == nil {
		return nil, errUnavailable
	}
	rows, err := s.db.QueryContext(ctx, `select id, name from permissions order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []auth.Permission{}
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// collectRoles folds (role, permission) rows ordered by role id into roles.
// It closes rows.
func collectRoles(rows *sql.Rows) ([]auth.Role, error) {
	defer rows.Close()

	roles := []auth.Role{}
	for rows.Next() {
		var (
			roleID   int64
			roleName string
			permID   sql.NullInt64
			permName sql.NullString
		)
		if err := rows.Scan(&roleID, &roleName, &permID, &permName); err != nil {
			return nil, err
		}
		if n := len(roles); n == 0 || roles[n-1].ID != roleID {
			roles = append(roles, auth.Role{ID: roleID, Name: roleName, Permissions: []auth.Permission{}})
		}
		if permID.Valid {
			last := &roles[len(roles)-1]
			last.Permissions = append(last.Permissions, auth.Permission{ID: permID.Int64, Name: permName.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

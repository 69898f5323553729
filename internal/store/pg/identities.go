package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventdesk.org/internal/auth"
)

const identityColumns = `id, first_name, last_name, email, password_hash`

func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	if s.db == nil {
		return nil, errUnavailable
	}
	identity, err := scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where email = $1`, auth.NormalizeEmail(email)))
	if err != nil {
		return nil, err
	}
	identity.Roles, err = s.identityRoles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *Store) FindByID(ctx context.Context, id string, withRoles bool) (*auth.Identity, error) {
	if s.db == nil {
		return nil, errUnavailable
	}
	identity, err := scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where id = $1`, id))
	if err != nil {
		return nil, err
	}
	if withRoles {
		identity.Roles, err = s.identityRoles(ctx, identity.ID)
		if err != nil {
			return nil, err
		}
	}
	return identity, nil
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	if s.db == nil {
		return false, errUnavailable
	}
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email = $1)`, auth.NormalizeEmail(email)).Scan(&taken)
	return taken, err
}

func (s *Store) Create(ctx context.Context, identity *auth.Identity) error {
	if s.db == nil {
		return errUnavailable
	}
	if identity == nil || identity.ID == "" {
		return fmt.Errorf("%w: identity id is required", auth.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into users (id, first_name, last_name, email, password_hash)
		values ($1, $2, $3, $4, $5)
	`, identity.ID, identity.FirstName, identity.LastName, auth.NormalizeEmail(identity.Email), identity.PasswordHash); err != nil {
		if isPgCode(err, pgErrUniqueViolation) {
			return auth.ErrAlreadyExists
		}
		return err
	}
	for _, role := range identity.Roles {
		if err := assignRole(ctx, tx, identity.ID, role.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if s.db == nil {
		return errUnavailable
	}
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash = $1, updated_at = now() where id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) AssignRole(ctx context.Context, identityID string, roleID int64) error {
	if s.db == nil {
		return errUnavailable
	}
	return assignRole(ctx, s.db, identityID, roleID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func assignRole(ctx context.Context, db execer, identityID string, roleID int64) error {
	_, err := db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id)
		values ($1, $2)
		on conflict do nothing
	`, identityID, roleID)
	if isPgCode(err, pgErrForeignKeyViolation) {
		return fmt.Errorf("%w: user %s or role %d", auth.ErrNotFound, identityID, roleID)
	}
	return err
}

func (s *Store) identityRoles(ctx context.Context, identityID string) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, p.id, p.name
		from user_roles ur
		join roles r on r.id = ur.role_id
		left join role_permissions rp on rp.role_id = r.id
		left join permissions p on p.id = rp.permission_id
		where ur.user_id = $1
		order by r.id, p.id
	`, identityID)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*auth.Identity, error) {
	var identity auth.Identity
	err := row.Scan(&identity.ID, &identity.FirstName, &identity.LastName, &identity.Email, &identity.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

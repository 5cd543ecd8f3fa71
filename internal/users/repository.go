package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	RoleSlugs(ctx context.Context) ([]string, error)
	AssignRole(ctx context.Context, userID int64, roleSlug string) (bool, error)
	RemoveRole(ctx context.Context, userID int64, roleSlug string) (bool, error)
	RoleKind(ctx context.Context, roleSlug string) (rbac.RoleKind, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users with their role slugs.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.email, u.name, u.is_active, u.last_login_at, u.created_at, u.updated_at,
	ARRAY(SELECT ro.slug FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = u.id ORDER BY ro.slug)
FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		var u User
		err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.Roles)
		return u, err
	})
}

// RoleSlugs lists every role slug for assignment forms.
func (r *Repository) RoleSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT slug FROM roles ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// AssignRole links the role to the user. changed is false when the link existed.
func (r *Repository) AssignRole(ctx context.Context, userID int64, roleSlug string) (bool, error) {
	if err := r.ensureUserAndRole(ctx, userID, roleSlug); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role_id)
SELECT $1, id FROM roles WHERE slug = $2
ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleSlug)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveRole unlinks the role from the user. changed is false when no link existed.
func (r *Repository) RemoveRole(ctx context.Context, userID int64, roleSlug string) (bool, error) {
	if err := r.ensureUserAndRole(ctx, userID, roleSlug); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles ur USING roles ro
WHERE ur.role_id = ro.id AND ur.user_id = $1 AND ro.slug = $2`, userID, roleSlug)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RoleKind returns the kind of the role. An unknown slug is a validation error
// on the role field.
func (r *Repository) RoleKind(ctx context.Context, roleSlug string) (rbac.RoleKind, error) {
	var kind rbac.RoleKind
	err := r.pool.QueryRow(ctx, `SELECT kind FROM roles WHERE slug = $1`, roleSlug).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", httpx.FieldErrors{"role": "unknown"}
	}
	if err != nil {
		return "", err
	}
	return kind, nil
}

func (r *Repository) ensureUserAndRole(ctx context.Context, userID int64, roleSlug string) error {
	var userOK, roleOK bool
	err := r.pool.QueryRow(ctx, `SELECT
	EXISTS (SELECT 1 FROM users WHERE id = $1),
	EXISTS (SELECT 1 FROM roles WHERE slug = $2)`, userID, roleSlug).Scan(&userOK, &roleOK)
	if err != nil {
		return err
	}
	if !userOK {
		return httpx.ErrNotFound
	}
	if !roleOK {
		return httpx.FieldErrors{"role": "unknown"}
	}
	return nil
}

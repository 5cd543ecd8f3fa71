package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samachar-news/samachar/internal/platform/db"
	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
)

// RepositoryPort defines data access methods for roles, permissions and menus.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, in RoleInput) (Role, error)
	UpdateRole(ctx context.Context, id int64, in RoleInput) (Role, error)
	SetRoleActive(ctx context.Context, id int64, active bool) error
	ReplaceRolePermissions(ctx context.Context, roleID int64, slugs []string) error
	ReplaceRoleMenus(ctx context.Context, roleID int64, slugs []string) error

	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, in PermissionInput) (Permission, error)
	SetPermissionActive(ctx context.Context, id int64, active bool) error

	ListMenus(ctx context.Context) ([]Menu, error)
	CreateMenu(ctx context.Context, in MenuInput) (Menu, error)
	UpdateMenu(ctx context.Context, id int64, in MenuInput) (Menu, error)
	SetMenuActive(ctx context.Context, id int64, active bool) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `r.id, r.slug, r.name, r.description, r.kind, r.is_active, r.created_at, r.updated_at,
	COALESCE(ARRAY(SELECT p.slug FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = r.id ORDER BY p.slug), '{}'),
	COALESCE(ARRAY(SELECT m.slug FROM role_menus rm JOIN menus m ON m.id = rm.menu_id
		WHERE rm.role_id = r.id ORDER BY m.slug), '{}')`

func scanRole(row pgx.CollectableRow) (Role, error) {
	var (
		role Role
		kind string
	)
	err := row.Scan(&role.ID, &role.Slug, &role.Name, &role.Description, &kind, &role.IsActive,
		&role.CreatedAt, &role.UpdatedAt, &role.Permissions, &role.Menus)
	role.Kind = rbac.ParseRoleKind(kind)
	return role, err
}

// ListRoles returns all roles ordered by slug.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles r ORDER BY r.slug`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRole)
}

// GetRole loads one role.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles r WHERE r.id = $1`, id)
	if err != nil {
		return Role{}, err
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	return role, mapError(err)
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO roles (slug, name, description, kind, is_active)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		in.Slug, in.Name, in.Description, string(in.Kind), active(in.IsActive)).Scan(&id)
	if err != nil {
		return Role{}, mapError(err)
	}
	return r.GetRole(ctx, id)
}

// UpdateRole rewrites a role's attributes.
func (r *Repository) UpdateRole(ctx context.Context, id int64, in RoleInput) (Role, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET slug = $2, name = $3, description = $4, kind = $5,
	is_active = $6, updated_at = NOW() WHERE id = $1`,
		id, in.Slug, in.Name, in.Description, string(in.Kind), active(in.IsActive))
	if err := affected(tag, err); err != nil {
		return Role{}, err
	}
	return r.GetRole(ctx, id)
}

// SetRoleActive toggles a role.
func (r *Repository) SetRoleActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	return affected(tag, err)
}

// ReplaceRolePermissions swaps the role's permission links for slugs.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID int64, slugs []string) error {
	return r.replaceLinks(ctx, roleID, slugs,
		`DELETE FROM role_permissions WHERE role_id = $1`,
		`INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, id FROM permissions WHERE slug = ANY($2::text[])`)
}

// ReplaceRoleMenus swaps the role's menu links for slugs.
func (r *Repository) ReplaceRoleMenus(ctx context.Context, roleID int64, slugs []string) error {
	return r.replaceLinks(ctx, roleID, slugs,
		`DELETE FROM role_menus WHERE role_id = $1`,
		`INSERT INTO role_menus (role_id, menu_id)
SELECT $1, id FROM menus WHERE slug = ANY($2::text[])`)
}

func (r *Repository) replaceLinks(ctx context.Context, roleID int64, slugs []string, deleteSQL, insertSQL string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&locked); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(ctx, deleteSQL, roleID); err != nil {
			return err
		}
		if len(slugs) == 0 {
			return nil
		}
		tag, err := tx.Exec(ctx, insertSQL, roleID, slugs)
		if err != nil {
			return mapError(err)
		}
		if int(tag.RowsAffected()) != len(slugs) {
			return fmt.Errorf("%w: unknown slug in %v", httpx.ErrValidation, slugs)
		}
		return nil
	})
}

func scanPermission(row pgx.CollectableRow) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt)
	return p, err
}

// ListPermissions returns all permissions ordered by slug.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, slug, name, description, is_active, created_at FROM permissions ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPermission)
}

// CreatePermission inserts a permission.
func (r *Repository) CreatePermission(ctx context.Context, in PermissionInput) (Permission, error) {
	rows, err := r.pool.Query(ctx, `INSERT INTO permissions (slug, name, description, is_active)
VALUES ($1, $2, $3, $4) RETURNING id, slug, name, description, is_active, created_at`,
		in.Slug, in.Name, in.Description, active(in.IsActive))
	if err != nil {
		return Permission{}, mapError(err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPermission)
	return p, mapError(err)
}

// SetPermissionActive toggles a permission store-wide.
func (r *Repository) SetPermissionActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE permissions SET is_active = $2 WHERE id = $1`, id, active)
	return affected(tag, err)
}

const menuColumns = `id, slug, title, path, icon, parent_id, sort_order, is_active, is_public`

func scanMenu(row pgx.CollectableRow) (Menu, error) {
	var m Menu
	err := row.Scan(&m.ID, &m.Slug, &m.Title, &m.Path, &m.Icon, &m.ParentID, &m.Order, &m.IsActive, &m.IsPublic)
	return m, err
}

// ListMenus returns every menu ordered by sort order then id.
func (r *Repository) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menus ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanMenu)
}

// CreateMenu inserts a menu.
func (r *Repository) CreateMenu(ctx context.Context, in MenuInput) (Menu, error) {
	rows, err := r.pool.Query(ctx, `INSERT INTO menus (slug, title, path, icon, parent_id, sort_order, is_active, is_public)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+menuColumns,
		in.Slug, in.Title, in.Path, in.Icon, in.ParentID, in.Order, active(in.IsActive), in.IsPublic)
	if err != nil {
		return Menu{}, mapError(err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMenu)
	return m, mapError(err)
}

// UpdateMenu rewrites a menu's attributes.
func (r *Repository) UpdateMenu(ctx context.Context, id int64, in MenuInput) (Menu, error) {
	rows, err := r.pool.Query(ctx, `UPDATE menus SET slug = $2, title = $3, path = $4, icon = $5, parent_id = $6,
	sort_order = $7, is_active = $8, is_public = $9, updated_at = NOW()
WHERE id = $1 RETURNING `+menuColumns,
		id, in.Slug, in.Title, in.Path, in.Icon, in.ParentID, in.Order, active(in.IsActive), in.IsPublic)
	if err != nil {
		return Menu{}, mapError(err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMenu)
	return m, mapError(err)
}

// SetMenuActive toggles a menu.
func (r *Repository) SetMenuActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE menus SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	return affected(tag, err)
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// mapError translates driver errors into httpx sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
		case "23503", "23514":
			return fmt.Errorf("%w: %s", httpx.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}

package rbac

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the read-only query surface over roles, permissions and menus.
type Store interface {
	// UserRoles returns every role linked to the user, active or not, with the
	// role's permission and menu links attached.
	UserRoles(ctx context.Context, userID int64) ([]ResolvedRole, error)
	// ActivePermissionSlugs lists every active permission slug.
	ActivePermissionSlugs(ctx context.Context) ([]string, error)
	// DashboardMenus lists every active, non-public menu ordered by sort order.
	DashboardMenus(ctx context.Context) ([]Menu, error)
	// MenusBySlugs lists the active, non-public menus with the given slugs.
	MenusBySlugs(ctx context.Context, slugs []string) ([]Menu, error)
	// MenuChildren lists active, non-public menus whose parent is one of parentIDs.
	MenuChildren(ctx context.Context, parentIDs []int64) ([]Menu, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const menuColumns = `m.id, m.slug, m.title, m.path, m.icon, m.parent_id, m.sort_order, m.is_active, m.is_public`

// UserRoles implements Store.
func (s *PGStore) UserRoles(ctx context.Context, userID int64) ([]ResolvedRole, error) {
	rows, err := s.pool.Query(ctx, `SELECT r.id, r.slug, r.kind, r.is_active
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1
ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []ResolvedRole
	index := make(map[int64]int)
	for rows.Next() {
		var (
			role ResolvedRole
			kind string
		)
		if err := rows.Scan(&role.ID, &role.Slug, &kind, &role.IsActive); err != nil {
			return nil, err
		}
		role.Kind = ParseRoleKind(kind)
		index[role.ID] = len(roles)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, nil
	}
	roleIDs := make([]int64, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
	}

	permRows, err := s.pool.Query(ctx, `SELECT rp.role_id, p.slug, p.is_active
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ANY($1)`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()
	for permRows.Next() {
		var (
			roleID int64
			grant  PermissionGrant
		)
		if err := permRows.Scan(&roleID, &grant.Slug, &grant.IsActive); err != nil {
			return nil, err
		}
		if i, ok := index[roleID]; ok {
			roles[i].Permissions = append(roles[i].Permissions, grant)
		}
	}
	if err := permRows.Err(); err != nil {
		return nil, err
	}

	menuRows, err := s.pool.Query(ctx, `SELECT rm.role_id, m.slug, m.is_active, m.is_public
FROM role_menus rm
JOIN menus m ON m.id = rm.menu_id
WHERE rm.role_id = ANY($1)`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer menuRows.Close()
	for menuRows.Next() {
		var (
			roleID int64
			grant  MenuGrant
		)
		if err := menuRows.Scan(&roleID, &grant.Slug, &grant.IsActive, &grant.IsPublic); err != nil {
			return nil, err
		}
		if i, ok := index[roleID]; ok {
			roles[i].Menus = append(roles[i].Menus, grant)
		}
	}
	if err := menuRows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// ActivePermissionSlugs implements Store.
func (s *PGStore) ActivePermissionSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug FROM permissions WHERE is_active ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// DashboardMenus implements Store.
func (s *PGStore) DashboardMenus(ctx context.Context) ([]Menu, error) {
	return s.queryMenus(ctx, `SELECT `+menuColumns+` FROM menus m
WHERE m.is_active AND NOT m.is_public
ORDER BY m.sort_order, m.id`)
}

// MenusBySlugs implements Store.
func (s *PGStore) MenusBySlugs(ctx context.Context, slugs []string) ([]Menu, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	return s.queryMenus(ctx, `SELECT `+menuColumns+` FROM menus m
WHERE m.slug = ANY($1) AND m.is_active AND NOT m.is_public
ORDER BY m.sort_order, m.id`, slugs)
}

// MenuChildren implements Store.
func (s *PGStore) MenuChildren(ctx context.Context, parentIDs []int64) ([]Menu, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	return s.queryMenus(ctx, `SELECT `+menuColumns+` FROM menus m
WHERE m.parent_id = ANY($1) AND m.is_active AND NOT m.is_public
ORDER BY m.sort_order, m.id`, parentIDs)
}

func (s *PGStore) queryMenus(ctx context.Context, query string, args ...any) ([]Menu, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var menus []Menu
	for rows.Next() {
		var m Menu
		if err := rows.Scan(&m.ID, &m.Slug, &m.Title, &m.Path, &m.Icon, &m.ParentID, &m.Order, &m.IsActive, &m.IsPublic); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return menus, nil
}

var _ Store = (*PGStore)(nil)

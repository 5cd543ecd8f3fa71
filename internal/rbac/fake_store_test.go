package rbac

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeStore is an in-memory Store with call counters and error injection.
type fakeStore struct {
	mu          sync.Mutex
	roles       map[int64]*ResolvedRole
	userRoles   map[int64][]int64
	permissions map[string]bool
	menus       []Menu

	userRolesCalls    atomic.Int32
	permissionCalls   atomic.Int32
	dashboardCalls    atomic.Int32
	menusBySlugCalls  atomic.Int32
	menuChildrenCalls atomic.Int32

	userRolesErr error
	menusErr     error

	// gate, when set, blocks UserRoles until closed.
	gate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:       make(map[int64]*ResolvedRole),
		userRoles:   make(map[int64][]int64),
		permissions: make(map[string]bool),
	}
}

func (f *fakeStore) addPermission(slug string, active bool) {
	f.permissions[slug] = active
}

func (f *fakeStore) addRole(id int64, slug string, kind RoleKind, active bool) {
	f.roles[id] = &ResolvedRole{ID: id, Slug: slug, Kind: kind, IsActive: active}
}

func (f *fakeStore) grantPermission(roleID int64, slug string) {
	r := f.roles[roleID]
	r.Permissions = append(r.Permissions, PermissionGrant{Slug: slug})
}

func (f *fakeStore) grantMenu(roleID int64, slug string) {
	r := f.roles[roleID]
	r.Menus = append(r.Menus, MenuGrant{Slug: slug})
}

func (f *fakeStore) assign(userID, roleID int64) {
	f.userRoles[userID] = append(f.userRoles[userID], roleID)
}

func (f *fakeStore) addMenu(m Menu) {
	f.menus = append(f.menus, m)
}

func (f *fakeStore) setRoleActive(id int64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[id].IsActive = active
}

func (f *fakeStore) setPermissionActive(slug string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permissions[slug] = active
}

func (f *fakeStore) menuBySlug(slug string) (Menu, bool) {
	for _, m := range f.menus {
		if m.Slug == slug {
			return m, true
		}
	}
	return Menu{}, false
}

func (f *fakeStore) UserRoles(ctx context.Context, userID int64) ([]ResolvedRole, error) {
	f.userRolesCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.userRolesErr != nil {
		return nil, f.userRolesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ResolvedRole
	for _, id := range f.userRoles[userID] {
		src := f.roles[id]
		role := ResolvedRole{ID: src.ID, Slug: src.Slug, Kind: src.Kind, IsActive: src.IsActive}
		for _, p := range src.Permissions {
			role.Permissions = append(role.Permissions, PermissionGrant{Slug: p.Slug, IsActive: f.permissions[p.Slug]})
		}
		for _, g := range src.Menus {
			if m, ok := f.menuBySlug(g.Slug); ok {
				role.Menus = append(role.Menus, MenuGrant{Slug: m.Slug, IsActive: m.IsActive, IsPublic: m.IsPublic})
			}
		}
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeStore) ActivePermissionSlugs(ctx context.Context) ([]string, error) {
	f.permissionCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for slug, active := range f.permissions {
		if active {
			out = append(out, slug)
		}
	}
	return out, nil
}

func (f *fakeStore) DashboardMenus(ctx context.Context) ([]Menu, error) {
	f.dashboardCalls.Add(1)
	if f.menusErr != nil {
		return nil, f.menusErr
	}
	return f.filterMenus(func(Menu) bool { return true }), nil
}

func (f *fakeStore) MenusBySlugs(ctx context.Context, slugs []string) ([]Menu, error) {
	f.menusBySlugCalls.Add(1)
	if f.menusErr != nil {
		return nil, f.menusErr
	}
	want := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		want[s] = struct{}{}
	}
	return f.filterMenus(func(m Menu) bool {
		_, ok := want[m.Slug]
		return ok
	}), nil
}

func (f *fakeStore) MenuChildren(ctx context.Context, parentIDs []int64) ([]Menu, error) {
	f.menuChildrenCalls.Add(1)
	want := make(map[int64]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		want[id] = struct{}{}
	}
	return f.filterMenus(func(m Menu) bool {
		if m.ParentID == nil {
			return false
		}
		_, ok := want[*m.ParentID]
		return ok
	}), nil
}

func (f *fakeStore) filterMenus(keep func(Menu) bool) []Menu {
	var out []Menu
	for _, m := range f.menus {
		if m.IsActive && !m.IsPublic && keep(m) {
			out = append(out, m)
		}
	}
	sortMenus(out)
	return out
}

func parent(id int64) *int64 {
	return &id
}

func menuSlugs(nodes []MenuNode) []string {
	var out []string
	var walk func([]MenuNode)
	walk = func(level []MenuNode) {
		for _, n := range level {
			out = append(out, n.Slug)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

package roles

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

// superAdminSet marks user ids holding an active superadmin role.
type superAdminSet map[int64]bool

func (s superAdminSet) IsSuperAdmin(_ context.Context, _ *rbac.Scope, userID int64) (bool, error) {
	return s[userID], nil
}

type fakeRepo struct {
	mu          sync.Mutex
	nextID      int64
	roles       map[int64]Role
	permissions map[int64]Permission
	menus       map[int64]Menu
	err         error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:      100,
		roles:       map[int64]Role{},
		permissions: map[int64]Permission{},
		menus:       map[int64]Menu{},
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) slugTaken(slug string, self int64) bool {
	for id, r := range f.roles {
		if r.Slug == slug && id != self {
			return true
		}
	}
	return false
}

func (f *fakeRepo) ListRoles(context.Context) ([]Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeRepo) GetRole(_ context.Context, id int64) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) CreateRole(_ context.Context, in RoleInput) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugTaken(in.Slug, 0) {
		return Role{}, httpx.ErrDuplicate
	}
	now := time.Now()
	r := Role{ID: f.id(), Slug: in.Slug, Name: in.Name, Description: in.Description, Kind: in.Kind,
		IsActive: active(in.IsActive), Permissions: []string{}, Menus: []string{}, CreatedAt: now, UpdatedAt: now}
	f.roles[r.ID] = r
	return r, nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, id int64, in RoleInput) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	if f.slugTaken(in.Slug, id) {
		return Role{}, httpx.ErrDuplicate
	}
	r.Slug, r.Name, r.Description, r.Kind, r.IsActive = in.Slug, in.Name, in.Description, in.Kind, active(in.IsActive)
	f.roles[id] = r
	return r, nil
}

func (f *fakeRepo) SetRoleActive(_ context.Context, id int64, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return httpx.ErrNotFound
	}
	r.IsActive = on
	f.roles[id] = r
	return nil
}

func (f *fakeRepo) ReplaceRolePermissions(_ context.Context, roleID int64, slugs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[roleID]
	if !ok {
		return httpx.ErrNotFound
	}
	known := map[string]bool{}
	for _, p := range f.permissions {
		known[p.Slug] = true
	}
	for _, s := range slugs {
		if !known[s] {
			return httpx.ErrValidation
		}
	}
	r.Permissions = append([]string{}, slugs...)
	f.roles[roleID] = r
	return nil
}

func (f *fakeRepo) ReplaceRoleMenus(_ context.Context, roleID int64, slugs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[roleID]
	if !ok {
		return httpx.ErrNotFound
	}
	r.Menus = append([]string{}, slugs...)
	f.roles[roleID] = r
	return nil
}

func (f *fakeRepo) ListPermissions(context.Context) ([]Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Permission, 0, len(f.permissions))
	for _, p := range f.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeRepo) CreatePermission(_ context.Context, in PermissionInput) (Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.permissions {
		if p.Slug == in.Slug {
			return Permission{}, httpx.ErrDuplicate
		}
	}
	p := Permission{ID: f.id(), Slug: in.Slug, Name: in.Name, Description: in.Description, IsActive: active(in.IsActive)}
	f.permissions[p.ID] = p
	return p, nil
}

func (f *fakeRepo) SetPermissionActive(_ context.Context, id int64, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.permissions[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.IsActive = on
	f.permissions[id] = p
	return nil
}

func (f *fakeRepo) ListMenus(context.Context) ([]Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Menu, 0, len(f.menus))
	for _, m := range f.menus {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateMenu(_ context.Context, in MenuInput) (Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := Menu{ID: f.id(), Slug: in.Slug, Title: in.Title, Path: in.Path, Icon: in.Icon, ParentID: in.ParentID,
		Order: in.Order, IsActive: active(in.IsActive), IsPublic: in.IsPublic}
	f.menus[m.ID] = m
	return m, nil
}

func (f *fakeRepo) UpdateMenu(_ context.Context, id int64, in MenuInput) (Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.menus[id]; !ok {
		return Menu{}, httpx.ErrNotFound
	}
	m := Menu{ID: id, Slug: in.Slug, Title: in.Title, Path: in.Path, Icon: in.Icon, ParentID: in.ParentID,
		Order: in.Order, IsActive: active(in.IsActive), IsPublic: in.IsPublic}
	f.menus[id] = m
	return m, nil
}

func (f *fakeRepo) SetMenuActive(_ context.Context, id int64, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.menus[id]
	if !ok {
		return httpx.ErrNotFound
	}
	m.IsActive = on
	f.menus[id] = m
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []shared.AuditLog
	err    error
}

func (s *recordingSink) Emit(_ context.Context, log shared.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, log)
	return s.err
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

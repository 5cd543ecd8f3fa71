package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roleEditor     int64 = 1
	roleSuperAdmin int64 = 2
	roleReporter   int64 = 3

	userEditor   int64 = 10
	userNoRoles  int64 = 11
	userReporter int64 = 12
)

// newsroomStore builds the fixture shared by the service and menu tests.
func newsroomStore() *fakeStore {
	f := newFakeStore()
	for _, slug := range []string{"news.create", "news.update", "news.publish", "user.delete"} {
		f.addPermission(slug, true)
	}
	f.addPermission("ads.edit", false)

	f.addMenu(Menu{ID: 1, Slug: "news-mgmt", Title: "समाचार", Path: "/dashboard/news", Order: 1, IsActive: true})
	f.addMenu(Menu{ID: 2, Slug: "user-mgmt", Title: "उपयोगकर्ता", Path: "/dashboard/users", Order: 2, IsActive: true})
	f.addMenu(Menu{ID: 3, Slug: "news-list", Title: "सभी समाचार", Path: "/dashboard/news/list", ParentID: parent(1), Order: 1, IsActive: true})
	f.addMenu(Menu{ID: 4, Slug: "news-drafts", Title: "ड्राफ्ट", Path: "/dashboard/news/drafts", ParentID: parent(1), Order: 0, IsActive: true})
	f.addMenu(Menu{ID: 5, Slug: "settings", Title: "सेटिंग्स", Path: "/dashboard/settings", Order: 3, IsActive: false})
	f.addMenu(Menu{ID: 6, Slug: "khel", Title: "खेल", Path: "/khel", Order: 1, IsActive: true, IsPublic: true})
	f.addMenu(Menu{ID: 7, Slug: "ads", Title: "विज्ञापन", Path: "/dashboard/ads", Order: 4, IsActive: true})
	f.addMenu(Menu{ID: 8, Slug: "ads-slots", Title: "स्लॉट", Path: "/dashboard/ads/slots", ParentID: parent(5), Order: 1, IsActive: true})

	f.addRole(roleEditor, "editor", RoleKindNormal, true)
	f.grantPermission(roleEditor, "news.create")
	f.grantPermission(roleEditor, "news.update")
	f.grantMenu(roleEditor, "news-mgmt")

	f.addRole(roleSuperAdmin, "superadmin", RoleKindSuperAdmin, true)

	f.addRole(roleReporter, "reporter", RoleKindNormal, true)
	f.grantPermission(roleReporter, "news.create")
	f.grantMenu(roleReporter, "news-mgmt")
	f.grantMenu(roleReporter, "khel")
	f.grantMenu(roleReporter, "settings")

	f.assign(userEditor, roleEditor)
	f.assign(userReporter, roleEditor)
	f.assign(userReporter, roleReporter)
	return f
}

func TestHasPermissionEditorScenario(t *testing.T) {
	store := newsroomStore()
	svc := NewService(store)
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, nil, userEditor, "news.create")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(ctx, nil, userEditor, "user.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasPermission(ctx, nil, userEditor, "does.not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionSuperAdminWildcard(t *testing.T) {
	store := newsroomStore()
	store.assign(userEditor, roleSuperAdmin)
	svc := NewService(store)

	for _, slug := range []string{"user.delete", "news.publish", "news.create"} {
		ok, err := svc.HasPermission(context.Background(), nil, userEditor, slug)
		require.NoError(t, err)
		assert.True(t, ok, slug)
	}
}

func TestHasPermissionInactiveSuperAdminIsNotWildcard(t *testing.T) {
	store := newsroomStore()
	store.assign(userEditor, roleSuperAdmin)
	store.setRoleActive(roleSuperAdmin, false)
	svc := NewService(store)

	ok, err := svc.HasPermission(context.Background(), nil, userEditor, "user.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasPermission(context.Background(), nil, userEditor, "news.create")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasPermissionWithoutRoles(t *testing.T) {
	store := newsroomStore()
	svc := NewService(store)

	for _, slug := range []string{"news.create", "user.delete", ""} {
		ok, err := svc.HasPermission(context.Background(), nil, userNoRoles, slug)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	menus, err := svc.UserMenus(context.Background(), nil, userNoRoles)
	require.NoError(t, err)
	assert.Empty(t, menus)
	assert.Zero(t, store.menusBySlugCalls.Load())
}

func TestRoleDeactivationFlipsDecision(t *testing.T) {
	store := newsroomStore()
	svc := NewService(store)
	ctx := context.Background()

	ok, err := svc.HasPermission(ctx, nil, userEditor, "news.update")
	require.NoError(t, err)
	require.True(t, ok)

	store.setRoleActive(roleEditor, false)
	for i := 0; i < 2; i++ {
		ok, err = svc.HasPermission(ctx, nil, userEditor, "news.update")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	store.setRoleActive(roleEditor, true)
	ok, err = svc.HasPermission(ctx, nil, userEditor, "news.update")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPermissionDeactivatedStoreWide(t *testing.T) {
	store := newsroomStore()
	store.setPermissionActive("news.create", false)
	svc := NewService(store)

	ok, err := svc.HasPermission(context.Background(), nil, userEditor, "news.create")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasPermission(context.Background(), nil, userEditor, "news.update")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckPermissionAnonymousSkipsStore(t *testing.T) {
	store := newsroomStore()
	svc := NewService(store)

	ok, err := svc.CheckPermission(context.Background(), NewScope(), Principal{}, "news.create")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, store.userRolesCalls.Load())

	ok, err = svc.CheckPermission(context.Background(), NewScope(), Principal{UserID: userEditor}, "news.create")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserPermissions(t *testing.T) {
	store := newsroomStore()
	svc := NewService(store)

	perms, err := svc.UserPermissions(context.Background(), nil, userReporter)
	require.NoError(t, err)
	assert.Equal(t, []string{"news.create", "news.update"}, perms)

	perms, err = svc.UserPermissions(context.Background(), nil, userNoRoles)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestUserPermissionsSuperAdminListsAllActive(t *testing.T) {
	store := newsroomStore()
	store.assign(userNoRoles, roleSuperAdmin)
	svc := NewService(store)

	perms, err := svc.UserPermissions(context.Background(), nil, userNoRoles)
	require.NoError(t, err)
	assert.Equal(t, []string{"news.create", "news.publish", "news.update", "user.delete"}, perms)
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	svc := NewService(newsroomStore())
	ctx := context.Background()
	scope := NewScope()

	ok, err := svc.HasAnyPermission(ctx, scope, userEditor, "user.delete", "news.update")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAllPermissions(ctx, scope, userEditor, "news.create", "news.update")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAllPermissions(ctx, scope, userEditor, "news.create", "user.delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreFailurePropagates(t *testing.T) {
	store := newsroomStore()
	store.userRolesErr = errors.New("connection refused")
	svc := NewService(store)

	ok, err := svc.HasPermission(context.Background(), NewScope(), userEditor, "news.create")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorContains(t, err, "connection refused")
}

type countingRecorder struct {
	allowed, denied map[string]int
}

func (c *countingRecorder) RecordDecision(check string, allowed bool) {
	if allowed {
		c.allowed[check]++
		return
	}
	c.denied[check]++
}

func TestDecisionRecorder(t *testing.T) {
	rec := &countingRecorder{allowed: map[string]int{}, denied: map[string]int{}}
	svc := NewService(newsroomStore(), WithDecisionRecorder(rec))
	ctx := context.Background()

	_, err := svc.HasPermission(ctx, nil, userEditor, "news.create")
	require.NoError(t, err)
	_, err = svc.HasPermission(ctx, nil, userEditor, "user.delete")
	require.NoError(t, err)
	_, err = svc.HasMenuAccess(ctx, nil, userEditor, "news-mgmt")
	require.NoError(t, err)

	assert.Equal(t, 1, rec.allowed[CheckPermission])
	assert.Equal(t, 1, rec.denied[CheckPermission])
	assert.Equal(t, 1, rec.allowed[CheckMenu])
}

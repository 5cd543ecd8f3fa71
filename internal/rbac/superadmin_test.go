package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samachar-news/samachar/internal/platform/httpx"
)

func TestIsSuperAdmin(t *testing.T) {
	store := newsroomStore()
	store.assign(userNoRoles, roleSuperAdmin)
	svc := NewService(store)
	ctx := context.Background()

	ok, err := svc.IsSuperAdmin(ctx, nil, userNoRoles)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsSuperAdmin(ctx, nil, userEditor)
	require.NoError(t, err)
	assert.False(t, ok)

	store.setRoleActive(roleSuperAdmin, false)
	ok, err = svc.IsSuperAdmin(ctx, nil, userNoRoles)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequireSuperAdmin(t *testing.T) {
	store := newsroomStore()
	store.assign(userNoRoles, roleSuperAdmin)
	svc := NewService(store)
	ctx := ContextWithScope(context.Background(), NewScope())

	assert.NoError(t, RequireSuperAdmin(ctx, svc, Principal{UserID: userNoRoles}))
	assert.ErrorIs(t, RequireSuperAdmin(ctx, svc, Principal{UserID: userEditor}), httpx.ErrForbidden)
	assert.ErrorIs(t, RequireSuperAdmin(ctx, svc, Principal{}), httpx.ErrForbidden)
	assert.ErrorIs(t, RequireSuperAdmin(ctx, nil, Principal{UserID: userNoRoles}), httpx.ErrForbidden)
}

func TestRequireSuperAdminStoreFailure(t *testing.T) {
	store := newsroomStore()
	store.userRolesErr = errors.New("pool exhausted")
	svc := NewService(store)

	err := RequireSuperAdmin(context.Background(), svc, Principal{UserID: userEditor})
	assert.ErrorIs(t, err, httpx.ErrUnavailable)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, httpx.ErrForbidden)
}

package view

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

type stubMenus struct {
	menus []rbac.MenuNode
	err   error
	calls int
}

func (s *stubMenus) UserMenus(ctx context.Context, scope *rbac.Scope, userID int64) ([]rbac.MenuNode, error) {
	s.calls++
	return s.menus, s.err
}

func dashboardRequest(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/news/list", nil)
	sess := shared.NewSession()
	if userID > 0 {
		sess.SetUser(strconv.FormatInt(userID, 10))
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestDashboardRendersSidebarTree(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	parentID := int64(1)
	menus := &stubMenus{menus: []rbac.MenuNode{{
		Menu: rbac.Menu{ID: 1, Slug: "news-mgmt", Title: "समाचार", Path: "/dashboard/news"},
		Children: []rbac.MenuNode{{
			Menu: rbac.Menu{ID: 2, Slug: "news-list", Title: "सभी समाचार", Path: "/dashboard/news/list", ParentID: &parentID},
		}},
	}}}
	d := &Dashboard{Engine: engine, CSRF: shared.NewCSRFManager("secret"), Menus: menus}

	rec := httptest.NewRecorder()
	d.Render(rec, dashboardRequest(7), "pages/home.html", "डैशबोर्ड", map[string]any{"AppEnv": "test", "Permissions": []string{"news.create"}, "MenuCount": 2}, http.StatusOK)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "सभी समाचार")
	assert.Contains(t, body, `<li class="active">`)
	assert.Contains(t, body, "news.create")
	assert.Equal(t, 1, menus.calls)
}

func TestDashboardAnonymousSkipsMenus(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	menus := &stubMenus{}
	d := &Dashboard{Engine: engine, CSRF: shared.NewCSRFManager("secret"), Menus: menus}

	rec := httptest.NewRecorder()
	d.Render(rec, dashboardRequest(0), "pages/login.html", "लॉग इन", struct {
		Form   struct{ Email string }
		Errors map[string]string
	}{}, http.StatusOK)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<form")
	assert.Zero(t, menus.calls)
}

func TestDashboardMenuFailureRendersEmptySidebar(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	d := &Dashboard{Engine: engine, CSRF: shared.NewCSRFManager("secret"), Menus: &stubMenus{err: errors.New("down")}}

	rec := httptest.NewRecorder()
	d.Render(rec, dashboardRequest(7), "pages/roles.html", "भूमिकाएँ", map[string]any{"Roles": nil}, http.StatusOK)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="sidebar"`)
}

package app

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/view"
)

// AccessService is the slice of rbac.Service the home page reads.
type AccessService interface {
	UserPermissions(ctx context.Context, scope *rbac.Scope, userID int64) ([]string, error)
	UserMenus(ctx context.Context, scope *rbac.Scope, userID int64) ([]rbac.MenuNode, error)
}

type homeHandler struct {
	logger    *slog.Logger
	config    *Config
	access    AccessService
	dashboard *view.Dashboard
}

func (h homeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if !principal.Authenticated() {
		http.Redirect(w, r, rbac.LoginPath, http.StatusSeeOther)
		return
	}

	scope := rbac.ScopeFromContext(r.Context())
	var (
		perms []string
		menus []rbac.MenuNode
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		perms, err = h.access.UserPermissions(ctx, scope, principal.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		menus, err = h.access.UserMenus(ctx, scope, principal.UserID)
		return err
	})

	data := map[string]any{"AppEnv": h.config.AppEnv}
	status := http.StatusOK
	if err := g.Wait(); err != nil {
		h.logger.Error("load home access", slog.String("user", principal.String()), slog.Any("error", err))
		data["Errors"] = map[string]string{"general": "अनुमतियाँ अभी लोड नहीं हो सकीं"}
		status = http.StatusServiceUnavailable
	} else {
		data["Permissions"] = perms
		data["MenuCount"] = countMenus(menus)
	}
	h.dashboard.Render(w, r, "pages/home.html", "डैशबोर्ड", data, status)
}

func countMenus(nodes []rbac.MenuNode) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countMenus(node.Children)
	}
	return n
}

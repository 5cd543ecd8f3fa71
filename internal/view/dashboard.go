package view

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

// MenuSource resolves the sidebar forest for a user.
type MenuSource interface {
	UserMenus(ctx context.Context, scope *rbac.Scope, userID int64) ([]rbac.MenuNode, error)
}

// Dashboard renders pages inside the admin layout: CSRF token, flash message
// and the sidebar menus of the signed-in user.
type Dashboard struct {
	Engine *Engine
	CSRF   *shared.CSRFManager
	Menus  MenuSource
	Logger *slog.Logger
}

// Render writes the named page with status. A menu lookup failure renders an
// empty sidebar rather than failing the page.
func (d *Dashboard) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := d.CSRF.EnsureToken(sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	td := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Menus:       d.menus(r),
		Data:        data,
	}

	var buf bytes.Buffer
	if err := d.Engine.templates.ExecuteTemplate(&buf, name, td); err != nil {
		d.logger().Error("render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RedirectWithFlash queues a flash message and redirects with 303.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (d *Dashboard) menus(r *http.Request) []rbac.MenuNode {
	principal := rbac.PrincipalFromContext(r.Context())
	if d.Menus == nil || !principal.Authenticated() {
		return nil
	}
	menus, err := d.Menus.UserMenus(r.Context(), rbac.ScopeFromContext(r.Context()), principal.UserID)
	if err != nil {
		d.logger().Error("load sidebar menus", slog.String("user", principal.String()), slog.Any("error", err))
		return nil
	}
	return menus
}

func (d *Dashboard) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

package rbac

import (
	"log/slog"
	"net/http"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/shared"
)

// LoginPath is where page guards send anonymous visitors.
const LoginPath = "/auth/login"

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Scope installs a fresh request Scope so every check within one request shares
// role lookups. It must run before any guard.
func (m Middleware) Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithScope(r.Context(), NewScope())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.guard(shared.NormalizeSlugs(perms), false, m.denyJSON)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.guard(shared.NormalizeSlugs(perms), true, m.denyJSON)
}

// RequireAnyPage behaves like RequireAny but redirects anonymous visitors to the
// login page and renders plain 403 pages for HTML routes.
func (m Middleware) RequireAnyPage(perms ...string) func(http.Handler) http.Handler {
	return m.guard(shared.NormalizeSlugs(perms), false, m.denyPage)
}

type denyFunc func(w http.ResponseWriter, r *http.Request, anonymous bool)

func (m Middleware) guard(required []string, all bool, deny denyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := PrincipalFromContext(r.Context())
			if !principal.Authenticated() {
				m.Service.record(CheckPermission, false)
				deny(w, r, true)
				return
			}
			scope := ScopeFromContext(r.Context())
			var (
				granted bool
				err     error
			)
			if all {
				granted, err = m.Service.HasAllPermissions(r.Context(), scope, principal.UserID, required...)
			} else {
				granted, err = m.Service.HasAnyPermission(r.Context(), scope, principal.UserID, required...)
			}
			if err != nil {
				// Fail closed.
				m.logger().Error("rbac guard",
					slog.String("path", r.URL.Path),
					slog.String("user", principal.String()),
					slog.Any("error", err))
				deny(w, r, false)
				return
			}
			if !granted {
				m.logger().Warn("rbac denied",
					slog.String("path", r.URL.Path),
					slog.String("user", principal.String()),
					slog.Any("required", required))
				deny(w, r, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) denyJSON(w http.ResponseWriter, r *http.Request, anonymous bool) {
	if anonymous {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.RespondError(w, httpx.ErrForbidden)
}

func (m Middleware) denyPage(w http.ResponseWriter, r *http.Request, anonymous bool) {
	if anonymous {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

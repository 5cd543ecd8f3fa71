package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/samachar-news/samachar/internal/audit/http"
	"github.com/samachar-news/samachar/internal/auth"
	"github.com/samachar-news/samachar/internal/observability"
	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/roles"
	"github.com/samachar-news/samachar/internal/shared"
	"github.com/samachar-news/samachar/internal/users"
	"github.com/samachar-news/samachar/internal/view"
	"github.com/samachar-news/samachar/jobs"
	"github.com/samachar-news/samachar/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Dashboard      *view.Dashboard
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Access         AccessService

	AuthHandler  *auth.Handler
	AccessAPI    *rbac.Handler
	RolesHandler *roles.Handler
	UsersHandler *users.Handler
	AuditHandler *audithttp.Handler
	JobHandler   *jobs.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with samachar defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			RBAC:           params.RBACMiddleware,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}

		r.Method(http.MethodGet, "/", homeHandler{
			logger:    params.Logger,
			config:    params.Config,
			access:    params.Access,
			dashboard: params.Dashboard,
		})
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/api", func(r chi.Router) {
			if params.AccessAPI != nil {
				r.Route("/me", params.AccessAPI.MountRoutes)
			}
			if params.RolesHandler != nil {
				params.RolesHandler.MountRoutes(r)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/audit", params.AuditHandler.MountRoutes)
			}
		})

		r.Route("/dashboard", func(r chi.Router) {
			if params.RolesHandler != nil {
				r.Route("/roles", params.RolesHandler.MountPages)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountPages)
			}
		})

		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireAny(shared.PermAuditView))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

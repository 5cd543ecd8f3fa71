package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/shared"
)

// Handler exposes the current user's permissions and menus as JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/me routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listPermissions)
	r.Get("/permissions/{slug}", h.checkPermission)
	r.Get("/menus", h.listMenus)
	r.Get("/menus/{slug}", h.checkMenu)
}

type decisionResponse struct {
	Slug    string `json:"slug"`
	Allowed bool   `json:"allowed"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if !principal.Authenticated() {
		httpx.JSON(w, http.StatusOK, map[string]any{"permissions": []string{}})
		return
	}
	perms, err := h.service.UserPermissions(r.Context(), ScopeFromContext(r.Context()), principal.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	slug := shared.NormalizeSlug(chi.URLParam(r, "slug"))
	allowed, err := h.service.CheckPermission(r.Context(), ScopeFromContext(r.Context()), PrincipalFromContext(r.Context()), slug)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, decisionResponse{Slug: slug, Allowed: allowed})
}

func (h *Handler) listMenus(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if !principal.Authenticated() {
		httpx.JSON(w, http.StatusOK, map[string]any{"menus": []MenuNode{}})
		return
	}
	menus, err := h.service.UserMenus(r.Context(), ScopeFromContext(r.Context()), principal.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": menus})
}

func (h *Handler) checkMenu(w http.ResponseWriter, r *http.Request) {
	slug := shared.NormalizeSlug(chi.URLParam(r, "slug"))
	principal := PrincipalFromContext(r.Context())
	allowed := false
	if principal.Authenticated() {
		var err error
		allowed, err = h.service.HasMenuAccess(r.Context(), ScopeFromContext(r.Context()), principal.UserID, slug)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, decisionResponse{Slug: slug, Allowed: allowed})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if h.logger != nil {
		h.logger.Error("rbac handler", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	if errors.Is(err, ErrStoreUnavailable) {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	httpx.RespondError(w, err)
}

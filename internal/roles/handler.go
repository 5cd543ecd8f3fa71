package roles

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
	"github.com/samachar-news/samachar/internal/view"
)

// Handler manages role, permission and menu administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	dashboard *view.Dashboard
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, dashboard *view.Dashboard, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, dashboard: dashboard, rbac: rbac}
}

// MountRoutes registers the JSON API under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermRolesView)).Get("/", h.listRoles)
		r.With(h.rbac.RequireAny(shared.PermRolesView)).Get("/{id}", h.getRole)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(shared.PermRolesEdit))
			r.Post("/", h.createRole)
			r.Put("/{id}", h.updateRole)
			r.Patch("/{id}/active", h.setRoleActive)
			r.Put("/{id}/permissions", h.setRolePermissions)
			r.Put("/{id}/menus", h.setRoleMenus)
		})
	})
	r.Route("/permissions", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermPermissionsView, shared.PermRolesView)).Get("/", h.listPermissions)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(shared.PermRolesEdit))
			r.Post("/", h.createPermission)
			r.Patch("/{id}/active", h.setPermissionActive)
		})
	})
	r.Route("/menus", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermMenusView, shared.PermMenusEdit)).Get("/", h.listMenus)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(shared.PermMenusEdit))
			r.Post("/", h.createMenu)
			r.Put("/{id}", h.updateMenu)
			r.Patch("/{id}/active", h.setMenuActive)
		})
	})
}

// MountPages registers the dashboard pages under /dashboard/roles.
func (h *Handler) MountPages(r chi.Router) {
	r.With(h.rbac.RequireAnyPage(shared.PermRolesView)).Get("/", h.showRoles)
	r.With(h.rbac.RequireAnyPage(shared.PermRolesEdit)).Post("/{id}/active", h.toggleRoleForm)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": nonNil(roles)})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var in RoleInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in RoleInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	role, err := h.service.UpdateRole(r.Context(), rbac.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) setRoleActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.SetRoleActive)
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	h.replaceSlugs(w, r, h.service.SetRolePermissions)
}

func (h *Handler) setRoleMenus(w http.ResponseWriter, r *http.Request) {
	h.replaceSlugs(w, r, h.service.SetRoleMenus)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": nonNil(perms)})
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var in PermissionInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.service.CreatePermission(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) setPermissionActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.SetPermissionActive)
}

func (h *Handler) listMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.service.ListMenus(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"menus": nonNil(menus)})
}

func (h *Handler) createMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.service.CreateMenu(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) updateMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in MenuInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.service.UpdateMenu(r.Context(), rbac.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) setMenuActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.SetMenuActive)
}

type toggleFunc func(ctx context.Context, actor rbac.Principal, id int64, active bool) error

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn toggleFunc) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in ActiveInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.IsActive == nil {
		httpx.RespondError(w, httpx.FieldErrors{"is_active": "required"})
		return
	}
	if err := fn(r.Context(), rbac.PrincipalFromContext(r.Context()), id, *in.IsActive); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replaceFunc func(ctx context.Context, actor rbac.Principal, id int64, slugs []string) error

func (h *Handler) replaceSlugs(w http.ResponseWriter, r *http.Request, fn replaceFunc) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in SlugsInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := fn(r.Context(), rbac.PrincipalFromContext(r.Context()), id, in.Slugs); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) showRoles(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	status := http.StatusOK
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		data["Errors"] = map[string]string{"general": "भूमिकाएँ लोड नहीं हो सकीं"}
		status = http.StatusInternalServerError
	}
	data["Roles"] = roles
	data["CanEdit"] = h.canEdit(r)
	h.dashboard.Render(w, r, "pages/roles.html", "भूमिकाएँ", data, status)
}

func (h *Handler) toggleRoleForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		view.RedirectWithFlash(w, r, "/dashboard/roles", "error", "अमान्य भूमिका")
		return
	}
	active, err := strconv.ParseBool(r.PostFormValue("is_active"))
	if err != nil {
		view.RedirectWithFlash(w, r, "/dashboard/roles", "error", "अमान्य अनुरोध")
		return
	}
	if err := h.service.SetRoleActive(r.Context(), rbac.PrincipalFromContext(r.Context()), id, active); err != nil {
		h.logger.Error("toggle role failed", slog.Int64("role_id", id), slog.Any("error", err))
		view.RedirectWithFlash(w, r, "/dashboard/roles", "error", "भूमिका अद्यतन नहीं हो सकी")
		return
	}
	view.RedirectWithFlash(w, r, "/dashboard/roles", "success", "भूमिका अद्यतन हो गई")
}

func (h *Handler) canEdit(r *http.Request) bool {
	principal := rbac.PrincipalFromContext(r.Context())
	ok, err := h.rbac.Service.CheckPermission(r.Context(), rbac.ScopeFromContext(r.Context()), principal, shared.PermRolesEdit)
	if err != nil {
		h.logger.Warn("check roles.edit", slog.Any("error", err))
		return false
	}
	return ok
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.FieldErrors{"id": "invalid"})
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := httpx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("roles handler", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

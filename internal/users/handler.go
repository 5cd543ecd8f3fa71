package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
	"github.com/samachar-news/samachar/internal/view"
)

// Handler manages user management endpoints.
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

// MountRoutes registers the JSON API under /api/users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermUsersView)).Get("/", h.listUsers)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersEdit))
		r.Post("/{id}/roles", h.assignRole)
		r.Delete("/{id}/roles/{role}", h.removeRole)
	})
}

// MountPages registers the dashboard pages under /dashboard/users.
func (h *Handler) MountPages(r chi.Router) {
	r.With(h.rbac.RequireAnyPage(shared.PermUsersView)).Get("/", h.showUsers)
	r.With(h.rbac.RequireAnyPage(shared.PermUsersEdit)).Post("/{id}/roles", h.roleForm)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in RoleAssignment
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.AssignRole(r.Context(), rbac.PrincipalFromContext(r.Context()), id, in); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in := RoleAssignment{Role: chi.URLParam(r, "role")}
	if err := h.service.RemoveRole(r.Context(), rbac.PrincipalFromContext(r.Context()), id, in); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) showUsers(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	status := http.StatusOK
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		data["Errors"] = map[string]string{"general": "उपयोगकर्ता लोड नहीं हो सके"}
		status = http.StatusInternalServerError
	}
	data["Users"] = users
	canEdit := h.canEdit(r)
	data["CanEdit"] = canEdit
	if canEdit && err == nil {
		slugs, err := h.service.RoleSlugs(r.Context())
		if err != nil {
			h.logger.Warn("list role slugs failed", slog.Any("error", err))
			data["CanEdit"] = false
		}
		data["RoleOptions"] = slugs
	}
	h.dashboard.Render(w, r, "pages/users.html", "उपयोगकर्ता", data, status)
}

func (h *Handler) roleForm(w http.ResponseWriter, r *http.Request) {
	const back = "/dashboard/users"
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		view.RedirectWithFlash(w, r, back, "error", "अमान्य उपयोगकर्ता")
		return
	}
	actor := rbac.PrincipalFromContext(r.Context())
	in := RoleAssignment{Role: r.PostFormValue("role")}
	switch r.PostFormValue("op") {
	case "assign":
		err = h.service.AssignRole(r.Context(), actor, id, in)
	case "remove":
		err = h.service.RemoveRole(r.Context(), actor, id, in)
	default:
		view.RedirectWithFlash(w, r, back, "error", "अमान्य अनुरोध")
		return
	}
	if err != nil {
		h.logger.Warn("update user roles failed", slog.Int64("user_id", id), slog.Any("error", err))
		view.RedirectWithFlash(w, r, back, "error", "भूमिका अद्यतन नहीं हो सकी")
		return
	}
	view.RedirectWithFlash(w, r, back, "success", "भूमिकाएँ अद्यतन हो गईं")
}

func (h *Handler) canEdit(r *http.Request) bool {
	ok, err := h.rbac.Service.CheckPermission(r.Context(), rbac.ScopeFromContext(r.Context()),
		rbac.PrincipalFromContext(r.Context()), shared.PermUsersEdit)
	if err != nil {
		h.logger.Warn("check users.edit", slog.Any("error", err))
		return false
	}
	return ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.FieldErrors{"id": "invalid"})
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error("users handler", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

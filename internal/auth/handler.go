package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/shared"
	"github.com/samachar-news/samachar/internal/view"
)

const (
	msgInvalidCredentials = "ईमेल या पासवर्ड गलत है"
	msgInactiveAccount    = "यह खाता निष्क्रिय है"
	msgWelcome            = "फिर से स्वागत है"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	dashboard      *view.Dashboard
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, dashboard *view.Dashboard, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		dashboard:      dashboard,
		sessionManager: sessions,
		validator:      shared.NewValidator(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.SessionUserID(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.dashboard.Render(w, r, "pages/login.html", "लॉग इन", loginPageData{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	var fields httpx.FieldErrors
	if err := shared.ValidateStruct(h.validator, form); errors.As(err, &fields) {
		for field, tag := range fields {
			formErrors[field] = fieldMessage(tag)
		}
	}

	if len(formErrors) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		switch {
		case errors.Is(err, shared.ErrInactiveAccount):
			formErrors["general"] = msgInactiveAccount
		case err != nil:
			formErrors["general"] = msgInvalidCredentials
		default:
			if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
				h.logger.Error("renew session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.Delete(shared.CSRFSessionKey)
			sess.SetUser(strconv.FormatInt(user.ID, 10))
			h.logger.Info("user logged in", slog.Int64("user_id", user.ID))
			view.RedirectWithFlash(w, r, "/", "success", msgWelcome)
			return
		}
	}

	form.Password = ""
	h.dashboard.Render(w, r, "pages/login.html", "लॉग इन", loginPageData{Form: form, Errors: formErrors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func fieldMessage(tag string) string {
	switch tag {
	case "required":
		return "यह फ़ील्ड आवश्यक है"
	case "email":
		return "मान्य ईमेल दर्ज करें"
	case "min":
		return "पासवर्ड कम से कम 8 अक्षरों का होना चाहिए"
	default:
		return "अमान्य मान"
	}
}

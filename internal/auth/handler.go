package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
	"github.com/rentdesk/rentdesk/internal/users"
)

// Handler wires HTTP endpoints for session flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	rbac           rbac.Middleware
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		rbac:           rbac,
		validator:      httpx.NewValidator(),
	}
}

// MountRoutes registers session routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(authz.CreateSession)).Post("/sessions", h.handleLogin)
	r.With(h.rbac.RequireAny(authz.ReadSession)).Delete("/sessions", h.handleLogout)
	r.With(h.rbac.RequireAny(authz.ReadSession)).Get("/user", h.handleCurrentUser)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.NewError(httpx.ErrValidation, "The request body is not a valid JSON object.", "Check the request payload and try again."))
		return
	}
	if err := httpx.ValidateStruct(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess, err := h.service.Login(r.Context(), shared.PrincipalFromContext(r.Context()), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.sessionManager.SetCookie(w, sess)
	httpx.JSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.Logout(r.Context(), sess); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.sessionManager.ClearCookie(w)
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	user, ok := shared.PrincipalFromContext(r.Context()).(*users.User)
	if sess == nil || !ok {
		httpx.RespondError(w, shared.ErrInvalidSession)
		return
	}
	renewed, err := h.service.Renew(r.Context(), sess)
	if err != nil {
		h.logger.Error("renew session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.sessionManager.SetCookie(w, renewed)
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	httpx.JSON(w, http.StatusOK, user)
}

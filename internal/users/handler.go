package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Handler exposes account endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(h.rbac.RequireAny(authz.CreateUser)).Post("/", h.create)
		r.With(h.rbac.RequireAny(authz.ReadUser)).Get("/{username}", h.get)
		r.With(h.rbac.RequireAny(authz.UpdateUser)).Patch("/{username}", h.update)
		r.With(h.rbac.RequireAny(authz.UpdateUserFeatures)).Put("/{username}/role", h.setRole)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode user", err)
		return
	}
	user, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode user", err)
		return
	}
	user, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "username"), input)
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Role == "" {
		httpx.RespondError(w, httpx.NewError(httpx.ErrValidation, `The field "role" is required.`, "Send the role name in the request body."))
		return
	}
	user, err := h.service.SetRole(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "username"), req.Role)
	if err != nil {
		h.fail(w, "set user role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

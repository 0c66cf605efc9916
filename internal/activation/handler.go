package activation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Handler exposes the activation endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers activation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(authz.ReadActivationToken)).Patch("/activations/{token}", h.activate)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	tokenID, err := httpx.PathUUID(r, "token", "activation token")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.service.Activate(r.Context(), shared.PrincipalFromContext(r.Context()), tokenID)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("activate user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, token)
}

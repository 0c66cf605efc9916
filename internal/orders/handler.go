package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Handler exposes customer order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/customerorder", func(r chi.Router) {
		r.With(h.rbac.RequireAny(authz.ReadOrders, authz.ReadOrdersSelf)).Get("/", h.list)
		r.With(h.rbac.RequireAny(authz.CreateOrders)).Post("/", h.create)
		r.With(h.rbac.RequireAny(authz.ReadOrders, authz.ReadOrdersSelf)).Get("/{id}", h.get)
		r.With(h.rbac.RequireAny(authz.UpdateOrders)).Patch("/{id}", h.update)
		r.With(h.rbac.RequireAny(authz.DeleteOrders)).Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orders, pagination, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	pagination.WriteHeaders(w)
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode order", err)
		return
	}
	order, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "customer order")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "customer order")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode order", err)
		return
	}
	order, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), id, input)
	if err != nil {
		h.fail(w, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "customer order")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "delete order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

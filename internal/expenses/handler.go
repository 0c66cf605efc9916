package expenses

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Handler exposes financial expense endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/financialexpenses", func(r chi.Router) {
		r.With(h.rbac.RequireAny(authz.ReadExpenses)).Get("/", h.list)
		r.With(h.rbac.RequireAny(authz.CreateExpenses)).Post("/", h.create)
		r.With(h.rbac.RequireAny(authz.ReadExpenses)).Get("/{id}", h.get)
		r.With(h.rbac.RequireAny(authz.UpdateExpenses)).Patch("/{id}", h.update)
		r.With(h.rbac.RequireAny(authz.DeleteExpenses)).Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	expenses, pagination, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list expenses", err)
		return
	}
	pagination.WriteHeaders(w)
	httpx.JSON(w, http.StatusOK, expenses)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode expense", err)
		return
	}
	expense, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "expense")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	expense, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "expense")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode expense", err)
		return
	}
	expense, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), id, input)
	if err != nil {
		h.fail(w, "update expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "expense")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), id); err != nil {
		h.fail(w, "delete expense", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

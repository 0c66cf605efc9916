package devices

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Handler exposes device endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers device routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/devices", func(r chi.Router) {
		r.With(h.rbac.RequireAny(authz.ReadDevices)).Get("/", h.list)
		r.With(h.rbac.RequireAny(authz.CreateDevices)).Post("/", h.create)
		r.With(h.rbac.RequireAny(authz.ReadDevices)).Get("/{id}", h.get)
		r.With(h.rbac.RequireAny(authz.UpdateDevices, authz.UpdateDevicesStatus)).Patch("/{id}", h.update)
		r.With(h.rbac.RequireAny(authz.DeleteDevices)).Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: r.URL.Query().Get("status")}
	devices, pagination, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), filter, shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list devices", err)
		return
	}
	pagination.WriteHeaders(w)
	httpx.JSON(w, http.StatusOK, devices)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode device", err)
		return
	}
	device, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create device", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, device)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "device")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	device, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get device", err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "device")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := httpx.DecodeObject(r)
	if err != nil {
		h.fail(w, "decode device", err)
		return
	}
	device, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), id, input)
	if err != nil {
		h.fail(w, "update device", err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id", "device")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	device, err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "delete device", err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if h.logger != nil {
		h.logger.Warn(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

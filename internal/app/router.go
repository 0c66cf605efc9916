package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rentdesk/rentdesk/internal/activation"
	"github.com/rentdesk/rentdesk/internal/auth"
	"github.com/rentdesk/rentdesk/internal/devices"
	"github.com/rentdesk/rentdesk/internal/expenses"
	"github.com/rentdesk/rentdesk/internal/observability"
	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/users"
	"github.com/rentdesk/rentdesk/jobs"
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Caller resolves the principal of every /api/v1 request.
	Caller func(http.Handler) http.Handler

	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	ActivationHandler *activation.Handler
	DevicesHandler    *devices.Handler
	ExpensesHandler   *expenses.Handler
	OrdersHandler     *orders.Handler
	JobHandler        *jobs.Handler

	HealthChecks map[string]HealthCheck
}

// NewRouter constructs the chi.Router with RentDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.NewError(httpx.ErrNotFound,
			"The requested resource does not exist.",
			"Check the request path and try again."))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusMethodNotAllowed, httpx.ErrorBody{
			Name:       "MethodNotAllowedError",
			Message:    "This method is not allowed for this endpoint.",
			Action:     "Check the HTTP methods accepted by this endpoint.",
			StatusCode: http.StatusMethodNotAllowed,
		})
	})

	r.Get("/healthz", healthHandler(params.HealthChecks, logger))
	if params.JobHandler != nil {
		r.Route("/healthz/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.Caller != nil {
			r.Use(params.Caller)
		}
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
		if params.ActivationHandler != nil {
			params.ActivationHandler.MountRoutes(r)
		}
		if params.DevicesHandler != nil {
			params.DevicesHandler.MountRoutes(r)
		}
		if params.ExpensesHandler != nil {
			params.ExpensesHandler.MountRoutes(r)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
	})

	return r
}

type healthReport struct {
	Status       string            `json:"status"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Dependencies map[string]string `json:"dependencies"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := healthReport{Status: "ok", UpdatedAt: time.Now().UTC(), Dependencies: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
				report.Dependencies[name] = "unavailable"
				report.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Dependencies[name] = "ok"
		}
		w.Header().Set("Cache-Control", "no-store")
		httpx.JSON(w, status, report)
	}
}

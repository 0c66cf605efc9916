package rbac

import (
	"log/slog"
	"net/http"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Middleware wires feature gates for HTTP routes.
type Middleware struct {
	Engine *authz.Engine
	Logger *slog.Logger
}

// RequireAny lets the request through when the caller holds at least one of features.
func (m Middleware) RequireAny(features ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(features) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			p := shared.PrincipalFromContext(r.Context())
			for _, feature := range features {
				ok, err := m.Engine.Can(p, feature, nil)
				if err != nil {
					m.fail(w, "rbac require any", err)
					return
				}
				if ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.Forbidden(features[0]))
		})
	}
}

func (m Middleware) fail(w http.ResponseWriter, msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Caller resolves the principal for every request: the session owner when a session cookie
// is present, otherwise the anonymous principal.
func Caller(service *Service, sessions *shared.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := sessions.TokenFromRequest(r)
			if !ok {
				anon, err := service.Anonymous()
				if err != nil {
					logger.Error("resolve anonymous principal", slog.Any("error", err))
					httpx.RespondError(w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(ctx, anon)))
				return
			}

			sess, user, err := service.Resolve(ctx, token)
			if err != nil {
				if errors.Is(err, shared.ErrInvalidSession) {
					sessions.ClearCookie(w)
				} else {
					logger.Error("resolve session", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			ctx = shared.ContextWithSession(ctx, sess)
			ctx = shared.ContextWithPrincipal(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

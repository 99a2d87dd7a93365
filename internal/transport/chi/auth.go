package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	"github.com/kailas-cloud/incidex/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// SessionResolver maps a bearer token to the caller.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Principal, error)
}

// SessionAuthMiddleware resolves Bearer session tokens into an auth.Principal on the
// request context. Requests without an Authorization header proceed anonymously;
// handlers decide whether a caller is required.
func SessionAuthMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorResponseCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			p, err := sessions.Resolve(r.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "invalid session")
					return
				}
				logger.FromContext(r.Context()).Error("session lookup failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), p)
			ctx = logger.ContextWithLogger(ctx, logger.FromContext(ctx).With(zap.String("user_id", p.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

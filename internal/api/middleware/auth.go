package middleware

import (
	"context"
	"errors"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/security"
	"habit_tracker/internal/platform/metrics"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/samber/oops"
)

type contextKey string

const ClaimsCtxKey contextKey = "claims"

// TokenVerifier checks a bearer token and returns the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// Authenticator admits a request only with a valid bearer token and attaches
// its claims to the request context. Missing, expired and invalid tokens are
// all rejected with 401; the reason is logged and counted but never sent to
// the client beyond "missing" vs. "invalid or expired".
func Authenticator(tokens TokenVerifier, log *slog.Logger, m *metrics.Metrics, errs *common.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason string, err error) {
				m.RecordAuthRejection(reason)
				log.Warn("request rejected by auth guard",
					"reason", reason,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)
				errs.Respond(w, r, err)
			}

			raw := jwtauth.TokenFromHeader(r)
			if raw == "" {
				reject(metrics.ReasonMissing, oops.Code("AUTH_TOKEN_MISSING").Wrap(common.ErrMissingToken))
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, common.ErrTokenExpired) {
					reject(metrics.ReasonExpired, err)
				} else {
					reject(metrics.ReasonInvalid, err)
				}
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsCtxKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the identity attached by Authenticator.
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(ClaimsCtxKey).(*security.Claims)
	return claims, ok && claims != nil
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.ID, true
}

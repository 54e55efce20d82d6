package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rohits-web03/inkwell/internal/session"
	"github.com/rohits-web03/inkwell/internal/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth rejects requests without a valid session cookie and stores the
// verified claims in the request context.
func RequireAuth(tokens *session.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				logger.DebugContext(r.Context(), "rejected session token", slog.Any("error", err))
				utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*session.Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated user's id, or "" outside RequireAuth.
func UserID(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

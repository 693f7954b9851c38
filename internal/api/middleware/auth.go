package middleware

import (
	"context"
	"net/http"

	"restaurant_menu/internal/app/service"
	"restaurant_menu/internal/common"
	"restaurant_menu/internal/common/security"
	"restaurant_menu/internal/platform/logging"
)

type contextKey string

const SessionCtxKey contextKey = "session"

// SessionVerifier resolves a session token to the current user.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*service.Session, error)
}

// Authenticator rejects requests without a valid session cookie and stores the
// resolved session in the request context. Failures that surface as 500 are logged.
func Authenticator(verifier SessionVerifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := verifier.Verify(r.Context(), security.SessionTokenFromRequest(r))
			if err != nil {
				if common.HTTPStatusFromError(err) == http.StatusInternalServerError {
					logger.Error(r.Context(), "session check failed", "method", r.Method, "path", r.URL.Path, "error", err)
				}
				common.RespondWithAppError(w, err, "Internal server error")
				return
			}
			ctx := context.WithValue(r.Context(), SessionCtxKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after Authenticator. The role comes from the user row
// Authenticator just loaded, not from the token.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok || !session.IsAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SessionFromContext(ctx context.Context) (*service.Session, bool) {
	session, ok := ctx.Value(SessionCtxKey).(*service.Session)
	return session, ok && session != nil
}

// GetUserIDFromContext returns the ID of the user Authenticator resolved.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return 0, false
	}
	return session.User.ID, true
}

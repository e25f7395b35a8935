package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rohanj-dev/skystash/internal/auth"
	"github.com/rohanj-dev/skystash/internal/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user's id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// ContextWithUserID is used by handler tests to simulate an authenticated
// request without going through the middleware.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// AuthMiddleware is the only authorization checkpoint: it verifies the session
// cookie and attaches the caller's id to the request context. Downstream
// handlers never re-check the token.
func AuthMiddleware(tokens *auth.TokenService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("token")
		if err != nil {
			unauthorized(w)
			return
		}

		userID, err := tokens.Verify(cookie.Value)
		if err != nil {
			unauthorized(w)
			return
		}

		id, err := uuid.Parse(userID)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
		Success: false,
		Message: "Invalid or expired token",
	})
}

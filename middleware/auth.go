package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"go-storefront/utils"
)

// Key type for context
type contextKey string

const userContextKey = contextKey("user_id")

// AuthMiddleware verifies the auth-token header and attaches the user id to
// the request context. Rejects with 401 and no state change otherwise.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.Header.Get("auth-token")
		if tokenStr == "" {
			unauthorized(w, "Please authenticate using a valid token")
			return
		}

		claims, err := utils.ParseToken(tokenStr)
		if err != nil {
			unauthorized(w, "Please authenticate using a valid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userContextKey).(string)
	return id, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

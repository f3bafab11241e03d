package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gudangkita/warehouse-service/pkg/auth"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)

// AuthMiddleware validates the JWT bearer token and stores the caller's
// identity in the request context. Requests arriving through the gateway
// may carry pre-verified X-User-* headers instead; those are trusted the
// same way.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if username := r.Header.Get("X-User-Name"); username != "" {
			ctx := context.WithValue(r.Context(), UsernameKey, username)
			ctx = context.WithValue(ctx, RoleKey, r.Header.Get("X-User-Role"))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// MutationMiddleware checks that the caller's role may move stock
func MutationMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(RoleKey).(string)
		if !ok || !auth.CanMutate(role) {
			respondError(w, http.StatusForbidden, "Warehouse access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom reads the authenticated username for ledger attribution.
func actorFrom(r *http.Request) string {
	if username, ok := r.Context().Value(UsernameKey).(string); ok && username != "" {
		return username
	}
	return "system"
}

// Helper function for error responses
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

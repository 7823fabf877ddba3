package middleware

import (
	"net/http"
	"strings"

	"leavedesk/internal/domain/auth"
)

// Auth attaches the bearer-token identity to the request context. A
// missing or invalid token leaves the request anonymous; handlers and
// RequireRole decide what that means per route.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			role, err := auth.ParseRole(claims.Role)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), auth.UserContext{
				EmployeeID: claims.EmployeeID,
				Role:       role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

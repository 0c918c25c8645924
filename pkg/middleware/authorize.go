package middleware

import (
	"context"
	"net/http"
	"slices"

	"lapordesa/pkg/response"
)

// HasRole reports whether the request carries claims with one of roles.
func HasRole(ctx context.Context, roles ...string) bool {
	claims, ok := ClaimsFromContext(ctx)
	return ok && slices.Contains(roles, claims.Role)
}

// RequireRole runs after AuthMiddleware; requests without claims are
// unauthenticated, requests with the wrong role are forbidden.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ClaimsFromContext(r.Context()); !ok {
				response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if !HasRole(r.Context(), allowedRoles...) {
				response.Error(w, http.StatusForbidden, "Forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

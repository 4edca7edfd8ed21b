// Package rbac provides role-based access control middleware.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// HasRole allows only accounts whose token role is one of roles. Run it
// after middleware.Authenticate. With no roles it lets every
// authenticated account through.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		if r != "" {
			allowed[r] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w, "Access token required")
				return
			}
			if len(allowed) > 0 && !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// Authenticate verifies the bearer token and stores its claims on the
// request context. Handlers read them with auth.ClaimsFromContext or
// ctx.Context.UserID.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Unauthorized(w, "Access token required")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

// RoleFromCtx returns the role of the authenticated account.
func RoleFromCtx(r *http.Request) (string, bool) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	return c.Role, true
}

// UserIDFromCtx returns the id of the authenticated account.
func UserIDFromCtx(r *http.Request) (uint, bool) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return 0, false
	}
	return c.UserID, true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

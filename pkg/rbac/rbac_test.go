package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/auth"
)

func serve(role string, roles ...string) int {
	h := HasRole(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if role != "" {
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: 1, Role: role}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestHasRole(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve("admin", "admin"))
	assert.Equal(t, http.StatusForbidden, serve("customer", "admin"))
	assert.Equal(t, http.StatusUnauthorized, serve("", "admin"))
}

func TestHasRoleEmptyAllowsAnyAccount(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve("customer", ""))
	assert.Equal(t, http.StatusOK, serve("customer"))
}

// Package ctx provides a request context for storefront handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context:
//
//	func (c *OrderController) Show(x *ctx.Context) {
//	    id, ok := x.ParamUint("id")
//	    if !ok {
//	        return
//	    }
//	    order, err := c.orders.Get(x.Context(), id)
//	    if err != nil {
//	        x.Fail(err)
//	        return
//	    }
//	    x.Success("", order)
//	}
//
//	router.Get("/orders/{id}", "orders.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int // written status code (0 = not written yet)
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a numeric path parameter. On failure it writes a 400
// and returns false.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		c.Error(http.StatusBadRequest, fmt.Sprintf("Invalid %s", key))
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// FormFile returns the uploaded file for a multipart field, with the body
// capped at MAX_UPLOAD_BYTES.
func (c *Context) FormFile(field string) (multipart.File, *multipart.FileHeader, error) {
	return bind.File(c.R, field)
}

// ClientIP returns the real client IP, respecting X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Claims returns the bearer token claims, if the auth middleware ran.
func (c *Context) Claims() (*auth.Claims, bool) {
	return auth.ClaimsFromContext(c.R.Context())
}

// UserID returns the authenticated account id, or 0.
func (c *Context) UserID() uint {
	if cl, ok := c.Claims(); ok {
		return cl.UserID
	}
	return 0
}

// ─── Per-request store ────────────────────────────────────────────────────────

// Set stores a value in the per-request key-value store.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

// Get retrieves a value from the per-request store.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// GetUint returns a uint value from the store, or 0 if absent/wrong type.
func (c *Context) GetUint(key string) uint {
	v, _ := c.Get(key)
	u, _ := v.(uint)
	return u
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On failure it writes a 400 envelope and returns false.
//
//	var input PlaceOrderInput
//	if !c.BindJSON(&input) {
//	    return // response already sent
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v as the response body with the given status code.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

// Success sends a 200 envelope.
func (c *Context) Success(message string, data any) {
	c.status = http.StatusOK
	response.Success(c.W, message, data)
}

// Created sends a 201 envelope.
func (c *Context) Created(message string, data any) {
	c.status = http.StatusCreated
	response.Created(c.W, message, data)
}

// Error sends a failure envelope with the given status and message.
func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// Fail maps a service error to its status and envelope.
func (c *Context) Fail(err error) {
	rec := &statusRecorder{ResponseWriter: c.W}
	response.Fail(rec, c.R, err)
	c.status = rec.status
}

// ValidationError sends a 400 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusBadRequest
	response.ValidationError(c.W, errs)
}

// Unauthorized sends a 401.
func (c *Context) Unauthorized(message ...string) {
	msg := "Unauthorized"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusUnauthorized, msg)
}

// NotFound sends a 404.
func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

// WrittenStatus returns the HTTP status code that was written to the response,
// or 0 if no response has been written yet.
func (c *Context) WrittenStatus() int { return c.status }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

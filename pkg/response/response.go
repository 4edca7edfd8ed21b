// Package response writes the JSON envelope used by every API endpoint:
//
//	{"success": true, "message": "...", "data": {...}}
//	{"success": false, "message": "...", "error": "..."}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Envelope is the response body shape.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Write encodes body with the given status.
func Write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 envelope.
func Success(w http.ResponseWriter, message string, data any) {
	Write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created sends a 201 envelope.
func Created(w http.ResponseWriter, message string, data any) {
	Write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Error sends a failure envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Success: false, Message: message})
}

// Fail translates err through apperr and writes it. Internal errors are
// logged; their detail is only exposed in development.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	body := Envelope{Success: false, Message: apperr.Message(err)}
	if status == http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		if config.IsDevelopment() {
			body.Error = err.Error()
		}
	}
	Write(w, status, body)
}

// ValidationError sends a 400 with field-level errors.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

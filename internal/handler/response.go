package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "forbidden", "message": "you do not have permission to manage this guild"}
//
// This makes it easy for the dashboard to parse errors. It always knows
// what fields to expect, regardless of whether it's a 400, 401, 403, 404, or 500.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/auth"
	"github.com/sakif/guild-dashboard/internal/model"
)

// Cache-Control values. Guild reads are private to the logged-in user and
// short-lived because the bot's state changes under them.
const (
	cacheShort      = "private, max-age=10"
	cacheLong       = "private, max-age=30"
	cacheSession    = "no-cache, no-store, must-revalidate"
	cacheNoStore    = "no-store"
	cacheRevalidate = "private, no-cache" // stored settings change on every save
)

// maxBodyBytes caps request bodies. Settings documents are small.
const maxBodyBytes = 64 << 10

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending field on validation errors
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body.
// Once Encode writes, the headers are sent and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeCachedJSON is writeJSON with a Cache-Control header.
func writeCachedJSON(w http.ResponseWriter, cacheControl string, data any) {
	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, data)
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.Is() walks the whole chain, so a service returning
// fmt.Errorf("updating shop item: %w", apperror.NotFound(...)) still maps to 404.
// Anything that is not an *apperror.AppError is a 500 with a generic body:
// raw errors may contain SQL or file paths and never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	slog.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON value from the request body into dst.
// With strict set, unknown object keys are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must be a single JSON object")
	}
	return nil
}

// sessionFrom returns the request's session or nil. The router's
// RequireSession middleware guarantees non-nil on guild routes; services
// still treat nil as unauthorized.
func sessionFrom(r *http.Request) *model.Session {
	sess, _ := auth.SessionFromContext(r.Context())
	return sess
}

func guildID(r *http.Request) string {
	return chi.URLParam(r, "guildId")
}

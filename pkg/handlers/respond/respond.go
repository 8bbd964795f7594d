// Package respond writes JSON responses and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

const genericMessage = "Something went wrong, please try again."

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Message writes an api.Error body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, api.Error{Message: msg})
}

// Error writes the status that matches err. Errors we don't recognise are
// logged and answered with a generic 500 so internals never leak.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	Message(w, status, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, settlement.ErrInvalidRequest),
		errors.Is(err, adrevenue.ErrInvalidPeriod):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, settlement.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, settlement.ErrAmountMismatch),
		errors.Is(err, settlement.ErrInvalidState):
		return http.StatusConflict, err.Error()
	case errors.Is(err, settlement.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, settlement.ErrRetryable):
		return http.StatusServiceUnavailable, settlement.ErrRetryable.Error()
	}
	return http.StatusInternalServerError, genericMessage
}

// Decode reads a JSON body into v. On failure it answers 400 and returns false.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Message(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// Caller returns the authenticated caller, answering 401 when there is none.
func Caller(w http.ResponseWriter, r *http.Request) (middleware.Caller, bool) {
	c, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		Message(w, http.StatusUnauthorized, "authentication required")
	}
	return c, ok
}

// Forbidden answers 403.
func Forbidden(w http.ResponseWriter) {
	Message(w, http.StatusForbidden, "forbidden")
}

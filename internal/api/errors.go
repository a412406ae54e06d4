package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/taskforge/taskforge-core/internal/auth"
	"github.com/taskforge/taskforge-core/internal/notification"
	"github.com/taskforge/taskforge-core/internal/project"
	"github.com/taskforge/taskforge-core/internal/task"
)

// ErrorResponse is the uniform error body returned by every endpoint.
// The error field is derived from the status code; message carries the
// specific reason and path echoes the request path.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes the uniform error body.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, message)
}

// writeUnauthorized writes a 401 error response. Authentication and
// authorisation failures share this shape so callers cannot probe
// which gate rejected them.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusUnauthorized, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, message)
}

// writeDomainError maps domain sentinel errors onto HTTP statuses.
// Unknown errors become 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUserInactive):
		writeUnauthorized(w, r, "wrong credentials")
	case errors.Is(err, auth.ErrEmailExists):
		writeBadRequest(w, r, "email already registered")
	case errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrUnknownAssignee):
		writeBadRequest(w, r, err.Error())
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, task.ErrNotFound),
		errors.Is(err, project.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		writeNotFound(w, r, err.Error())
	default:
		writeInternalError(w, r, "internal server error")
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/pkg/errors"
)

// APIError is an expected failure with the status and message the client should see.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	return e.Message
}

func badRequest(msg string) *APIError   { return &APIError{Status: http.StatusBadRequest, Message: msg} }
func unauthorized(msg string) *APIError { return &APIError{Status: http.StatusUnauthorized, Message: msg} }
func forbidden(msg string) *APIError    { return &APIError{Status: http.StatusForbidden, Message: msg} }
func notFound(msg string) *APIError     { return &APIError{Status: http.StatusNotFound, Message: msg} }

var errUnavailable = &APIError{Status: http.StatusServiceUnavailable, Message: "Cover storage not configured"}

type messageResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// respondError is the single exit for failed requests. Anything that is not an
// APIError is logged and reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, messageResponse{Message: apiErr.Message, Details: apiErr.Details})
		return
	}
	middleware.LoggerFromContext(r.Context()).WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Something went wrong"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

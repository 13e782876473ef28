package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/cellar-tracker/internal/errors"
	"github.com/cellar-tracker/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// respondCategorizedError maps categorized service errors onto the wire,
// falling back to a generic 500 for unrecognized errors.
func respondCategorizedError(w http.ResponseWriter, err error) {
	var cerr *apperrors.CategorizedError
	if errors.As(err, &cerr) {
		se := cerr.ToServiceError()
		respondError(w, cerr.StatusCode, se.Code, se.Message, se.Details)
		return
	}
	respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error(), nil)
}

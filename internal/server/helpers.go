package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/foliowise/advisor/internal/models"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteSuccess wraps data in the standard response envelope.
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, models.ApiResponse{Success: true, Data: data})
}

// WriteApiError writes a normalized error envelope.
func WriteApiError(w http.ResponseWriter, statusCode int, code, message, details string) {
	WriteJSON(w, statusCode, models.ApiResponse{
		Success: false,
		Error:   models.NewApiError(code, message, details),
	})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteApiError(w, http.StatusMethodNotAllowed, models.ErrCodeValidation, "Method not allowed", "")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Request body is required", "")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteApiError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid JSON", err.Error())
		return false
	}
	return true
}

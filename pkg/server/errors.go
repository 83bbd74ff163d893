package server

import (
	"encoding/json"
	"net/http"
)

// Error types returned in the "type" field of an error response.
const (
	ErrorTypeInvalidRequest   = "invalid_request_error"
	ErrorTypeEmptySelection   = "empty_selection"
	ErrorTypeRequestTooLarge  = "request_too_large"
	ErrorTypeMethodNotAllowed = "method_not_allowed"
	ErrorTypeNotFound         = "not_found"
	ErrorTypeRateLimited      = "rate_limit_exceeded"
	ErrorTypeServerBusy       = "server_busy"
	ErrorTypeServerError      = "server_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errorType, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors at this point mean the client went away.
	_ = json.NewEncoder(w).Encode(body)
}

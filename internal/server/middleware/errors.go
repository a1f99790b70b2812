package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/3leaps/bucketagent/internal/observability"
	"go.uber.org/zap"
)

// Error codes used by the gateway's JSON envelope.
const (
	CodeInternal         = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds an envelope carrying the request ID from r, if any.
func NewErrorResponse(r *http.Request, code, message string) ErrorResponse {
	resp := ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
	if r != nil {
		resp.Error.RequestID = GetRequestID(r.Context())
	}
	return resp
}

// WriteError writes the JSON envelope for code and message.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeErrorResponse(w, NewErrorResponse(r, code, message), status)
}

// WriteErrorResponse writes a prepared envelope.
func WriteErrorResponse(w http.ResponseWriter, resp ErrorResponse, status int) {
	writeErrorResponse(w, resp, status)
}

func writeErrorResponse(w http.ResponseWriter, resp ErrorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		observability.CLILogger.Warn("Failed to write error response", zap.Error(err))
	}
}

// Recovery converts panics into a 500 JSON envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			observability.CLILogger.Error("Recovered from panic",
				zap.Any("panic", rec),
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Stack("stack"))

			WriteError(w, r, http.StatusInternalServerError, CodeInternal, fmt.Sprintf("panic: %v", rec))
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorHandler is Recovery under the name used when chaining error middleware.
func ErrorHandler(next http.Handler) http.Handler {
	return Recovery(next)
}

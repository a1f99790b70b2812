package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/3leaps/bucketagent/internal/server/middleware"
	"github.com/3leaps/bucketagent/pkg/output"
)

// HTTPErrorResponder writes err to w.
type HTTPErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

var httpErrorResponder HTTPErrorResponder = respondWithStorageError

// SetHTTPErrorResponder replaces the responder; nil restores the default.
func SetHTTPErrorResponder(fn HTTPErrorResponder) {
	if fn == nil {
		fn = respondWithStorageError
	}
	httpErrorResponder = fn
}

// ResetHTTPErrorResponder restores the default responder.
func ResetHTTPErrorResponder() {
	httpErrorResponder = respondWithStorageError
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}

// respondWithStorageError maps the storage error taxonomy onto HTTP.
func respondWithStorageError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := classify(err)
	middleware.WriteError(w, r, status, code, err.Error())
}

// classify returns the envelope code and HTTP status for err.
func classify(err error) (string, int) {
	if errors.Is(err, context.DeadlineExceeded) {
		return output.ErrCodeTransport, http.StatusGatewayTimeout
	}

	code := output.ErrorCode(err)
	switch code {
	case output.ErrCodeNotFound, output.ErrCodeBucketNotFound:
		return code, http.StatusNotFound
	case output.ErrCodeAccessDenied:
		return code, http.StatusForbidden
	case output.ErrCodeThrottled:
		return code, http.StatusTooManyRequests
	case output.ErrCodeUnavailable:
		return code, http.StatusServiceUnavailable
	default:
		// Credential, parse, operation and transport failures are upstream
		// faults from the client's point of view.
		return code, http.StatusBadGateway
	}
}

// NotFound writes the 404 envelope for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, http.StatusNotFound, middleware.CodeNotFound, "route not found: "+r.URL.Path)
}

// MethodNotAllowed writes the 405 envelope.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "method not allowed: "+r.Method)
}

// Package transport defines the HTTP collaborator the storage agent issues
// requests through.
//
// The agent never performs network I/O itself. It hands a fully addressed,
// fully headered request to a Transport and interprets whatever comes back.
// Cancellation and timeouts are the transport's concern.
package transport

import (
	"context"
	"io"
	"net/http"
)

// Transport issues a single HTTP exchange per call.
//
// Implementations must be safe for concurrent use if the agent using them is
// shared between goroutines.
type Transport interface {
	Get(ctx context.Context, url string, opts Options) (*Response, error)
	Put(ctx context.Context, url string, opts Options) (*Response, error)
	Head(ctx context.Context, url string, opts Options) (*Response, error)
	Delete(ctx context.Context, url string, opts Options) (*Response, error)
}

// Header is a single request header. Request headers are kept as an ordered
// list because some providers are sensitive to header order.
type Header struct {
	Name  string
	Value string
}

// Options carries the request headers and optional body.
type Options struct {
	// Headers are applied in order.
	Headers []Header

	// Body is the request payload, or nil.
	Body io.Reader

	// ContentLength is the caller-declared body length. It is trusted as-is.
	ContentLength int64
}

// Header returns the value of the first header matching name
// (case-insensitive), or "".
func (o Options) Header(name string) string {
	canonical := http.CanonicalHeaderKey(name)
	for _, h := range o.Headers {
		if http.CanonicalHeaderKey(h.Name) == canonical {
			return h.Value
		}
	}
	return ""
}

// Response is the raw outcome of one HTTP exchange.
type Response struct {
	// StatusCode is the numeric HTTP status (e.g. 200).
	StatusCode int

	// Status is the status message (e.g. "200 OK").
	Status string

	// Header holds the response headers.
	Header http.Header

	// Body is the response payload, or nil when there is none.
	// Whoever ends up holding the Response is responsible for closing it.
	Body io.ReadCloser
}

// Success reports whether the status is in the 2xx range.
func (r *Response) Success() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Close releases the body, if any.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

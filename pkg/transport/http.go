package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single exchange when HTTPConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// HTTPConfig configures the net/http backed Transport.
type HTTPConfig struct {
	// Timeout bounds each exchange, including reading the response body.
	// Zero uses DefaultTimeout; negative disables the client timeout.
	Timeout time.Duration

	// Endpoint, when set, redirects every request to this base URL
	// (e.g. "http://localhost:5555") while keeping the original Host header.
	// This lets virtual-hosted requests reach S3-compatible test servers.
	Endpoint string

	// RateLimit caps outgoing requests per second. Zero means unlimited.
	// Requests wait for a token; nothing is retried.
	RateLimit float64

	// Client overrides the underlying HTTP client.
	Client *http.Client

	// Logger receives per-request debug logs. Headers are never logged.
	Logger *zap.Logger
}

// HTTP is a Transport backed by net/http.
type HTTP struct {
	client   *http.Client
	endpoint *url.URL
	limiter  *rate.Limiter
	logger   *zap.Logger
}

var _ Transport = (*HTTP)(nil)

// NewHTTP creates a net/http Transport.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	t := &HTTP{
		client: cfg.Client,
		logger: cfg.Logger,
	}

	if t.client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		if timeout < 0 {
			timeout = 0
		}
		t.client = &http.Client{Timeout: timeout}
	}

	if t.logger == nil {
		t.logger = zap.NewNop()
	}

	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("transport: invalid endpoint %q: %w", cfg.Endpoint, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("transport: endpoint scheme must be http or https, got %q", u.Scheme)
		}
		t.endpoint = u
	}

	if cfg.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return t, nil
}

// Get issues a GET request.
func (t *HTTP) Get(ctx context.Context, url string, opts Options) (*Response, error) {
	return t.do(ctx, http.MethodGet, url, opts)
}

// Put issues a PUT request.
func (t *HTTP) Put(ctx context.Context, url string, opts Options) (*Response, error) {
	return t.do(ctx, http.MethodPut, url, opts)
}

// Head issues a HEAD request.
func (t *HTTP) Head(ctx context.Context, url string, opts Options) (*Response, error) {
	return t.do(ctx, http.MethodHead, url, opts)
}

// Delete issues a DELETE request.
func (t *HTTP) Delete(ctx context.Context, url string, opts Options) (*Response, error) {
	return t.do(ctx, http.MethodDelete, url, opts)
}

func (t *HTTP) do(ctx context.Context, method, rawURL string, opts Options) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := t.newRequest(ctx, method, rawURL, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("HTTP request failed",
			zap.String("method", method),
			zap.String("host", req.Host),
			zap.String("path", req.URL.EscapedPath()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	t.logger.Debug("HTTP request completed",
		zap.String("method", method),
		zap.String("host", req.Host),
		zap.String("path", req.URL.EscapedPath()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
	}

	// net/http always hands back a non-nil body; report "no body" explicitly
	// so callers can tell an empty payload from a present one.
	switch {
	case method == http.MethodHead || resp.ContentLength == 0:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		out.Body = nil
	case resp.ContentLength < 0:
		out.Body = peekBody(resp.Body)
	}

	return out, nil
}

// peekBody resolves a body of unknown length (chunked or close-delimited).
// It returns nil when the stream ends before its first byte.
func peekBody(body io.ReadCloser) io.ReadCloser {
	br := bufio.NewReader(body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		_ = body.Close()
		return nil
	}
	return struct {
		io.Reader
		io.Closer
	}{br, body}
}

func (t *HTTP) newRequest(ctx context.Context, method, rawURL string, opts Options) (*http.Request, error) {
	body := opts.Body
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("transport: build %s request: %w", method, err)
	}
	switch {
	case opts.Body == nil:
	case opts.ContentLength == 0:
		// A zero length with a non-nil body means "unknown" to net/http.
		req.Body = http.NoBody
		req.GetBody = nil
		req.ContentLength = 0
	default:
		req.ContentLength = opts.ContentLength
	}

	if t.endpoint != nil {
		req.Host = req.URL.Host
		req.URL.Scheme = t.endpoint.Scheme
		req.URL.Host = t.endpoint.Host
	}

	// net/http serializes headers in its own order; the ordered list is
	// honoured up to this boundary.
	for _, h := range opts.Headers {
		switch http.CanonicalHeaderKey(h.Name) {
		case "Host":
			req.Host = h.Value
		case "Content-Length":
			// Carried by req.ContentLength.
		default:
			req.Header.Add(h.Name, h.Value)
		}
	}

	return req, nil
}

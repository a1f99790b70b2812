// Package request assembles signed, virtual-hosted request descriptors.
//
// Building a request is a pure function of its Input and the injected Clock:
// nothing here performs network I/O or reads ambient state.
package request

import (
	"io"
	"strconv"

	"github.com/3leaps/bucketagent/pkg/auth"
	"github.com/3leaps/bucketagent/pkg/transport"
)

const (
	// DefaultContentType is sent with bodies that carry no content type.
	DefaultContentType = "application/octet-stream"

	// DefaultCacheControl is sent with bodies that carry no cache directive.
	DefaultCacheControl = "no-cache"
)

// Header names emitted by the builder.
const (
	HeaderAuthorization = "Authorization"
	HeaderHost          = "Host"
	HeaderDate          = "Date"
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderCacheControl  = "Cache-Control"
	HeaderContentMD5    = "Content-MD5"
)

// Input describes one request to build.
type Input struct {
	// Method is the HTTP method (GET, PUT, HEAD, DELETE).
	Method string

	// Bucket is the target bucket.
	Bucket string

	// Path is the request path: PathForKey(key) for objects or
	// ListPath(query) for listings.
	Path string

	// Region selects the regional endpoint.
	Region string

	// Credentials sign the request.
	Credentials auth.Credentials

	// Body is the optional payload. When non-nil, content headers are added.
	Body io.Reader

	// ContentLength is the declared body length; it is sent as-is.
	ContentLength int64

	// ContentType defaults to DefaultContentType when a body is present.
	ContentType string

	// CacheControl defaults to DefaultCacheControl when a body is present.
	CacheControl string

	// ContentMD5 is the optional base64 MD5 of the body.
	ContentMD5 string
}

// Descriptor is a fully addressed, fully headered request.
// A Descriptor is built per call and never reused.
type Descriptor struct {
	Method        string
	Host          string
	Path          string
	Headers       []transport.Header
	Body          io.Reader
	ContentLength int64
}

// URL returns scheme://host + path.
func (d *Descriptor) URL(scheme string) string {
	return scheme + "://" + d.Host + d.Path
}

// Header returns the first header value matching name, or "".
func (d *Descriptor) Header(name string) string {
	return d.Options().Header(name)
}

// Options converts the descriptor into transport options.
func (d *Descriptor) Options() transport.Options {
	return transport.Options{
		Headers:       d.Headers,
		Body:          d.Body,
		ContentLength: d.ContentLength,
	}
}

// Builder builds request descriptors.
type Builder struct {
	clock     Clock
	apiSuffix string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the time source for Date headers.
func WithClock(c Clock) Option {
	return func(b *Builder) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithAPISuffix overrides the provider API domain (default "amazonaws.com").
func WithAPISuffix(suffix string) Option {
	return func(b *Builder) {
		if suffix != "" {
			b.apiSuffix = suffix
		}
	}
}

// NewBuilder returns a Builder using the system clock unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		clock:     SystemClock{},
		apiSuffix: DefaultAPISuffix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Host returns the virtual host for bucket in region.
func (b *Builder) Host(bucket, region string) string {
	return virtualHost(bucket, region, b.apiSuffix)
}

// Build assembles the descriptor for in.
//
// Header order is Authorization, Host, Date, then, only when a body is
// present, Content-Length, Content-Type, Cache-Control and Content-MD5
// (when supplied).
func (b *Builder) Build(in Input) *Descriptor {
	date := FormatDate(b.clock.Now())
	host := b.Host(in.Bucket, in.Region)

	hasBody := in.Body != nil
	contentType := ""
	contentMD5 := ""
	if hasBody {
		contentType = in.ContentType
		if contentType == "" {
			contentType = DefaultContentType
		}
		contentMD5 = in.ContentMD5
	}

	resource := auth.CanonicalResource(in.Bucket, in.Path, "")
	toSign := auth.StringToSign(in.Method, contentMD5, contentType, date, resource)

	headers := make([]transport.Header, 0, 7)
	headers = append(headers,
		transport.Header{Name: HeaderAuthorization, Value: in.Credentials.Authorize(toSign)},
		transport.Header{Name: HeaderHost, Value: host},
		transport.Header{Name: HeaderDate, Value: date},
	)

	d := &Descriptor{
		Method: in.Method,
		Host:   host,
		Path:   in.Path,
	}

	if hasBody {
		cacheControl := in.CacheControl
		if cacheControl == "" {
			cacheControl = DefaultCacheControl
		}
		headers = append(headers,
			transport.Header{Name: HeaderContentLength, Value: strconv.FormatInt(in.ContentLength, 10)},
			transport.Header{Name: HeaderContentType, Value: contentType},
			transport.Header{Name: HeaderCacheControl, Value: cacheControl},
		)
		if contentMD5 != "" {
			headers = append(headers, transport.Header{Name: HeaderContentMD5, Value: contentMD5})
		}
		d.Body = in.Body
		d.ContentLength = in.ContentLength
	}

	d.Headers = headers
	return d
}

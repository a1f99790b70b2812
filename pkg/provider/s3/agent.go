package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/pkg/auth"
	"github.com/3leaps/bucketagent/pkg/provider"
	"github.com/3leaps/bucketagent/pkg/request"
	"github.com/3leaps/bucketagent/pkg/response"
	"github.com/3leaps/bucketagent/pkg/transport"
)

// Agent implements provider.Provider over an injected Transport.
//
// Each operation builds one signed request, performs one exchange and
// translates the response. Nothing is retried or paginated. An Agent is
// immutable after New and safe for concurrent use when its Transport and
// Clock are.
type Agent struct {
	creds     auth.Credentials
	region    string
	scheme    string
	builder   *request.Builder
	transport transport.Transport
	logger    *zap.Logger
}

// Ensure Agent implements the interfaces.
var (
	_ provider.Provider      = (*Agent)(nil)
	_ provider.ObjectGetter  = (*Agent)(nil)
	_ provider.ObjectDeleter = (*Agent)(nil)
)

type agentOptions struct {
	clock  request.Clock
	logger *zap.Logger
}

// Option configures an Agent.
type Option func(*agentOptions)

// WithClock sets the time source for Date headers.
func WithClock(c request.Clock) Option {
	return func(o *agentOptions) {
		o.clock = c
	}
}

// WithLogger sets the logger for per-operation debug logs.
func WithLogger(l *zap.Logger) Option {
	return func(o *agentOptions) {
		o.logger = l
	}
}

// New creates an agent.
func New(cfg Config, t transport.Transport, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &ConfigError{Field: "Transport", Message: "transport is required"}
	}
	cfg = cfg.withDefaults()

	o := agentOptions{clock: request.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &Agent{
		creds: auth.Credentials{
			AccessKey: cfg.AccessKeyID,
			SecretKey: cfg.SecretAccessKey,
		},
		region:    cfg.Region,
		scheme:    cfg.Scheme,
		builder:   request.NewBuilder(request.WithClock(o.clock), request.WithAPISuffix(cfg.APISuffix)),
		transport: t,
		logger:    o.logger,
	}, nil
}

// Region returns the region requests are addressed to.
func (a *Agent) Region() string {
	return a.region
}

// Put uploads contentLength bytes from body to bucket/key.
//
// contentLength is sent as declared; it is not checked against body. A nil
// body uploads an empty object.
func (a *Agent) Put(ctx context.Context, bucket, key string, body io.Reader, contentLength int64, opts provider.PutOptions) error {
	if body == nil {
		body = bytes.NewReader(nil)
		contentLength = 0
	}

	desc := a.build(request.Input{
		Method:        http.MethodPut,
		Bucket:        bucket,
		Path:          request.PathForKey(key),
		Body:          body,
		ContentLength: contentLength,
		ContentType:   opts.ContentType,
		CacheControl:  opts.CacheControl,
		ContentMD5:    opts.ContentMD5,
	})

	resp, err := a.exchange(ctx, response.OpPut, bucket, key, desc, a.transport.Put)
	if err != nil {
		return err
	}
	return response.Put(resp, bucket, key)
}

// Get downloads bucket/key.
//
// It returns nil with a nil error when the object is absent or empty. The
// caller must close the returned object.
func (a *Agent) Get(ctx context.Context, bucket, key string) (*provider.S3Object, error) {
	desc := a.build(request.Input{
		Method: http.MethodGet,
		Bucket: bucket,
		Path:   request.PathForKey(key),
	})

	resp, err := a.exchange(ctx, response.OpGet, bucket, key, desc, a.transport.Get)
	if err != nil {
		return nil, err
	}
	return response.Get(resp, bucket, key), nil
}

// Head reads the metadata of bucket/key.
//
// It returns nil with a nil error for any non-2xx response.
func (a *Agent) Head(ctx context.Context, bucket, key string) (*provider.ObjectMetadata, error) {
	desc := a.build(request.Input{
		Method: http.MethodHead,
		Bucket: bucket,
		Path:   request.PathForKey(key),
	})

	resp, err := a.exchange(ctx, response.OpHead, bucket, key, desc, a.transport.Head)
	if err != nil {
		return nil, err
	}
	return response.Head(resp, bucket, key)
}

// List returns one page of bucket. Truncated listings are not followed;
// pass ObjectListing.NextMarker as opts.Marker to continue.
func (a *Agent) List(ctx context.Context, bucket string, opts provider.ListOptions) (*provider.ObjectListing, error) {
	desc := a.build(request.Input{
		Method: http.MethodGet,
		Bucket: bucket,
		Path: request.ListPath(request.ListQuery{
			Prefix:    opts.Prefix,
			Marker:    opts.Marker,
			Delimiter: opts.Delimiter,
			MaxKeys:   opts.MaxKeys,
		}),
	})

	resp, err := a.exchange(ctx, response.OpList, bucket, "", desc, a.transport.Get)
	if err != nil {
		return nil, err
	}
	return response.List(resp, bucket)
}

// Delete removes bucket/key and reports the provider's success flag.
func (a *Agent) Delete(ctx context.Context, bucket, key string) (bool, error) {
	desc := a.build(request.Input{
		Method: http.MethodDelete,
		Bucket: bucket,
		Path:   request.PathForKey(key),
	})

	resp, err := a.exchange(ctx, response.OpDelete, bucket, key, desc, a.transport.Delete)
	if err != nil {
		return false, err
	}
	return response.Delete(resp), nil
}

func (a *Agent) build(in request.Input) *request.Descriptor {
	in.Region = a.region
	in.Credentials = a.creds
	return a.builder.Build(in)
}

type sendFunc func(ctx context.Context, url string, opts transport.Options) (*transport.Response, error)

// exchange performs the single round trip. Transport errors are returned
// unchanged.
func (a *Agent) exchange(ctx context.Context, op response.Operation, bucket, key string, desc *request.Descriptor, send sendFunc) (*transport.Response, error) {
	start := time.Now()
	resp, err := send(ctx, desc.URL(a.scheme), desc.Options())
	if err != nil {
		a.logger.Debug("Storage request failed",
			zap.Stringer("op", op),
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	a.logger.Debug("Storage request completed",
		zap.Stringer("op", op),
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return resp, nil
}

package provider

import (
	"context"
	"io"
)

// Capability interfaces.
//
// Helpers such as content.HeadBytes and the HTTP gateway depend on the
// narrowest interface they need, which keeps test doubles small.

// ObjectPutter can create or overwrite objects.
type ObjectPutter interface {
	// Put uploads contentLength bytes from body. The declared length is sent
	// as-is. A non-2xx response yields an *OperationError.
	Put(ctx context.Context, bucket, key string, body io.Reader, contentLength int64, opts PutOptions) error
}

// ObjectGetter can download objects as a stream.
type ObjectGetter interface {
	// Get returns the object, or nil with a nil error when the object is
	// absent or empty.
	Get(ctx context.Context, bucket, key string) (*S3Object, error)
}

// ObjectHeader can read object metadata.
type ObjectHeader interface {
	// Head returns metadata, or nil with a nil error when the provider
	// responds with a non-2xx status.
	Head(ctx context.Context, bucket, key string) (*ObjectMetadata, error)
}

// ObjectLister can list one page of a bucket.
type ObjectLister interface {
	// List returns a single page; it never follows truncation.
	List(ctx context.Context, bucket string, opts ListOptions) (*ObjectListing, error)
}

// ObjectDeleter can delete objects.
type ObjectDeleter interface {
	// Delete reports the provider's success flag. It does not distinguish
	// "deleted" from "did not exist".
	Delete(ctx context.Context, bucket, key string) (bool, error)
}

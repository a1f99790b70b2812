// Package content reads object payloads through the storage agent.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/3leaps/bucketagent/pkg/provider"
)

// HeadBytesResult is one outcome of HeadBytesMulti.
type HeadBytesResult struct {
	Key  string
	Data []byte
	Err  error
}

// HeadBytes reads at most n bytes from the start of bucket/key.
//
// The object is fetched with a single Get and the rest of the stream is
// discarded on close. An absent (or empty) object yields an error wrapping
// provider.ErrNotFound.
func HeadBytes(ctx context.Context, g provider.ObjectGetter, bucket, key string, n int64) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("head bytes must be >= 0")
	}

	obj, err := g.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, provider.ErrNotFound)
	}
	defer func() { _ = obj.Close() }()

	if n == 0 {
		return []byte{}, nil
	}

	return io.ReadAll(io.LimitReader(obj.Content, n))
}

// ReadAll reads the whole of bucket/key.
func ReadAll(ctx context.Context, g provider.ObjectGetter, bucket, key string) ([]byte, error) {
	obj, err := g.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, provider.ErrNotFound)
	}
	defer func() { _ = obj.Close() }()

	return io.ReadAll(obj.Content)
}

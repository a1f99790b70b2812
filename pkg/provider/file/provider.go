// Package file implements provider.Provider on a local directory tree.
//
// Each bucket is a subdirectory of the root and each key a relative file
// path beneath it. Results follow the same three outcomes as the signed
// agent: a value, an absent value (nil with a nil error), or an error
// classified by the provider sentinels.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/pkg/provider"
)

// DefaultMaxKeys caps a listing page when ListOptions.MaxKeys is zero.
const DefaultMaxKeys = 1000

const tempPrefix = ".bucketagent-put-"

// Provider implements provider.Provider for local filesystem paths.
type Provider struct {
	root   string
	logger *zap.Logger
}

var _ provider.Provider = (*Provider)(nil)

// Config configures a Provider.
type Config struct {
	// Root is the directory holding one subdirectory per bucket.
	Root string

	Logger *zap.Logger
}

// Validate checks that Root is set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("root dir is required")
	}
	return nil
}

// New creates a Provider rooted at cfg.Root. The directory must exist.
func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root := filepath.Clean(cfg.Root)
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root dir: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("root dir: %s is not a directory", root)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{root: root, logger: logger}, nil
}

// Put writes body to bucket/key through a temp file and rename. The bucket
// directory must exist; intermediate key directories are created. Exactly
// contentLength bytes must be read from body.
func (p *Provider) Put(ctx context.Context, bucket, key string, body io.Reader, contentLength int64, opts provider.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := p.bucketDir("put", bucket)
	if err != nil {
		return err
	}
	full, err := objectPath(dir, key)
	if err != nil {
		return p.wrapError("put", bucket, key, err)
	}
	if body == nil {
		body = strings.NewReader("")
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return p.wrapError("put", bucket, key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), tempPrefix+"*")
	if err != nil {
		return p.wrapError("put", bucket, key, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, body)
	if err != nil {
		return p.wrapError("put", bucket, key, err)
	}
	if n != contentLength {
		return p.wrapError("put", bucket, key, fmt.Errorf("read %d bytes, expected %d", n, contentLength))
	}
	if err := tmp.Close(); err != nil {
		return p.wrapError("put", bucket, key, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return p.wrapError("put", bucket, key, err)
	}

	p.logger.Debug("Stored object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int64("bytes", n))
	return nil
}

// Get opens bucket/key. A missing file or bucket is absent.
func (p *Provider) Get(ctx context.Context, bucket, key string) (*provider.S3Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, ok, err := p.existingObject("get", bucket, key)
	if err != nil || !ok {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, p.wrapError("get", bucket, key, err)
	}
	return &provider.S3Object{Bucket: bucket, Key: key, Content: f}, nil
}

// Head stats bucket/key. A missing file or bucket is absent. The content
// type is derived from the key's extension.
func (p *Provider) Head(ctx context.Context, bucket, key string) (*provider.ObjectMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, ok, err := p.existingObject("head", bucket, key)
	if err != nil || !ok {
		return nil, err
	}
	st, err := os.Stat(full)
	if err != nil {
		return nil, p.wrapError("head", bucket, key, err)
	}
	return &provider.ObjectMetadata{
		Bucket:                  bucket,
		Key:                     key,
		DisplayName:             provider.DisplayName(key),
		ContentLength:           st.Size(),
		ContentType:             mime.TypeByExtension(path.Ext(key)),
		LastModifiedEpochMillis: st.ModTime().UnixMilli(),
	}, nil
}

// List returns one page of keys in lexical order. A missing bucket is an
// error wrapping provider.ErrBucketNotFound.
func (p *Provider) List(ctx context.Context, bucket string, opts provider.ListOptions) (*provider.ObjectListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := p.bucketDir("list", bucket)
	if err != nil {
		return nil, err
	}

	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	keys, err := collectKeys(dir)
	if err != nil {
		return nil, p.wrapError("list", bucket, "", err)
	}
	sort.Strings(keys)

	listing := &provider.ObjectListing{BucketName: bucket, Entries: []provider.ObjectSummary{}}
	last := ""
	for _, k := range keys {
		if !strings.HasPrefix(k, opts.Prefix) || (opts.Marker != "" && k <= opts.Marker) {
			continue
		}

		// Keys under a delimiter roll up into one common prefix, which
		// counts once toward maxKeys like an entry.
		rollup := ""
		if opts.Delimiter != "" {
			if i := strings.Index(k[len(opts.Prefix):], opts.Delimiter); i >= 0 {
				rollup = k[:len(opts.Prefix)+i+len(opts.Delimiter)]
				if rollup == last || (opts.Marker != "" && rollup <= opts.Marker) {
					continue
				}
			}
		}

		if len(listing.Entries)+len(listing.CommonPrefixes) == maxKeys {
			listing.IsTruncated = true
			listing.NextMarker = last
			break
		}

		if rollup != "" {
			listing.CommonPrefixes = append(listing.CommonPrefixes, rollup)
			last = rollup
			continue
		}
		st, err := os.Stat(filepath.Join(dir, filepath.FromSlash(k)))
		if err != nil {
			continue
		}
		listing.Entries = append(listing.Entries, provider.ObjectSummary{Bucket: bucket, Key: k, SizeBytes: st.Size()})
		last = k
	}
	return listing, nil
}

// Delete removes bucket/key. Deleting a missing key succeeds.
func (p *Provider) Delete(ctx context.Context, bucket, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dir, err := p.bucketDir("delete", bucket)
	if err != nil {
		return false, err
	}
	full, err := objectPath(dir, key)
	if err != nil {
		return false, p.wrapError("delete", bucket, key, err)
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, p.wrapError("delete", bucket, key, err)
	}
	return true, nil
}

// existingObject resolves bucket/key and reports whether a regular file is
// there.
func (p *Provider) existingObject(op, bucket, key string) (string, bool, error) {
	dir, err := p.bucketDir(op, bucket)
	if err != nil {
		if errors.Is(err, provider.ErrBucketNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	full, err := objectPath(dir, key)
	if err != nil {
		return "", false, p.wrapError(op, bucket, key, err)
	}
	st, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, p.wrapError(op, bucket, key, err)
	}
	if st.IsDir() {
		return "", false, nil
	}
	return full, true, nil
}

func (p *Provider) bucketDir(op, bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", p.wrapError(op, bucket, "", fmt.Errorf("invalid bucket name %q", bucket))
	}
	dir := filepath.Join(p.root, bucket)
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return "", p.wrapError(op, bucket, "", provider.ErrBucketNotFound)
	}
	return dir, nil
}

// objectPath maps key under dir, rejecting keys that escape it.
func objectPath(dir, key string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "" || key == "" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}

func collectKeys(dir string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	return keys, err
}

func (p *Provider) wrapError(op, bucket, key string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = fmt.Errorf("%w: %w", provider.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		err = fmt.Errorf("%w: %w", provider.ErrAccessDenied, err)
	}
	target := bucket
	if key != "" {
		target = bucket + "/" + key
	}
	return fmt.Errorf("%s %s %s: %w", provider.ProviderFile, op, target, err)
}

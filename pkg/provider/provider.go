// Package provider defines the object storage domain model shared by the
// storage agent, its CLI and its HTTP gateway.
//
// The Provider interface is the five-operation surface (put, get, head, list,
// delete). Results distinguish three outcomes: a typed value, an absent value
// (nil with a nil error), or an error from the taxonomy in errors.go.
package provider

import (
	"io"
	"path"
	"strings"
	"time"
)

// Provider abstracts bucket-style object storage.
//
// Implementations should:
//   - Perform exactly one request/response exchange per call
//   - Not retry or paginate
//   - Be safe for concurrent use
type Provider interface {
	ObjectPutter
	ObjectGetter
	ObjectHeader
	ObjectLister
	ObjectDeleter
}

// PutOptions configures a Put operation.
type PutOptions struct {
	// ContentType is the MIME type sent with the body.
	// Empty uses "application/octet-stream".
	ContentType string

	// CacheControl is sent as the Cache-Control header.
	// Empty uses "no-cache".
	CacheControl string

	// ContentMD5 is the optional base64 MD5 of the body.
	ContentMD5 string
}

// ListOptions configures a List operation.
//
// Values are sent without percent-encoding; they must not contain '&', '='
// or '#'.
type ListOptions struct {
	// Prefix filters results to keys starting with this value.
	Prefix string

	// Marker starts the listing after this key. Use ObjectListing.NextMarker
	// (or the last key) from a truncated listing to fetch the next page.
	Marker string

	// Delimiter groups keys (e.g., "/").
	Delimiter string

	// MaxKeys limits the number of entries returned. Zero uses the provider
	// default.
	MaxKeys int
}

// ObjectListing is the result of a List operation.
type ObjectListing struct {
	// BucketName is the bucket named in the listing payload.
	BucketName string

	// Entries are the object summaries, in provider order.
	Entries []ObjectSummary

	// IsTruncated reports whether the provider holds more entries.
	// The agent never follows it.
	IsTruncated bool

	// NextMarker is the provider-supplied marker for the next page, if any.
	NextMarker string

	// CommonPrefixes are the keys rolled up by ListOptions.Delimiter, each
	// ending with the delimiter. Empty when no delimiter was sent.
	CommonPrefixes []string
}

// ObjectSummary is the minimal record returned by a listing.
type ObjectSummary struct {
	Bucket    string
	Key       string
	SizeBytes int64
}

// ObjectMetadata is the metadata returned by a Head operation.
type ObjectMetadata struct {
	Bucket string
	Key    string

	// DisplayName is the final path segment of Key.
	DisplayName string

	// ContentLength is the object size in bytes.
	ContentLength int64

	// ContentType is the MIME type, or "" if the provider sent none.
	ContentType string

	// LastModifiedEpochMillis is the Last-Modified instant in Unix
	// milliseconds.
	LastModifiedEpochMillis int64
}

// LastModified returns LastModifiedEpochMillis as a UTC time.
func (m *ObjectMetadata) LastModified() time.Time {
	return time.UnixMilli(m.LastModifiedEpochMillis).UTC()
}

// S3Object is the result of a Get operation.
//
// The caller owns Content and must close it on every path.
type S3Object struct {
	Bucket  string
	Key     string
	Content io.ReadCloser
}

// Close closes Content.
func (o *S3Object) Close() error {
	if o == nil || o.Content == nil {
		return nil
	}
	return o.Content.Close()
}

// DisplayName returns the final path segment of key.
//
// Trailing slashes are ignored; a key made only of slashes yields "".
func DisplayName(key string) string {
	trimmed := strings.TrimRight(key, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}

// ProviderType identifies a storage provider.
type ProviderType string

const (
	// ProviderS3 represents AWS S3 style storage.
	ProviderS3 ProviderType = "s3"

	// ProviderFile represents a local directory tree.
	ProviderFile ProviderType = "file"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

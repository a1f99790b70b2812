// Package output provides JSONL output for CLI results.
//
// Each line is a typed record envelope whose Data payload is a listing
// entry, object metadata, an operation result, an error, or a summary.
// Lines are self-contained and can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/3leaps/bucketagent/pkg/provider"
)

// Record type constants follow the pattern bucketagent.<type>.v<version>.
const (
	// TypeObject identifies listing entry records.
	TypeObject = "bucketagent.object.v1"

	// TypeMetadata identifies object metadata records.
	TypeMetadata = "bucketagent.metadata.v1"

	// TypeResult identifies put/delete outcome records.
	TypeResult = "bucketagent.result.v1"

	// TypeError identifies error records.
	TypeError = "bucketagent.error.v1"

	// TypeSummary identifies listing summary records.
	TypeSummary = "bucketagent.summary.v1"

	// TypeContent identifies leading-bytes records.
	TypeContent = "bucketagent.content.v1"

	// TypePrefix identifies common prefix records from delimited listings.
	TypePrefix = "bucketagent.prefix.v1"
)

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "bucketagent.object.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created.
	TS time.Time `json:"ts"`

	// JobID correlates all records of one CLI invocation.
	JobID string `json:"job_id"`

	// Provider identifies the storage provider (e.g., "s3").
	Provider string `json:"provider"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ObjectRecord is the payload for one listing entry.
type ObjectRecord struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}

// PrefixRecord is the payload for one common prefix of a delimited listing.
type PrefixRecord struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// MetadataRecord is the payload for object metadata.
type MetadataRecord struct {
	Bucket        string    `json:"bucket" yaml:"bucket"`
	Key           string    `json:"key" yaml:"key"`
	DisplayName   string    `json:"display_name" yaml:"display_name"`
	ContentLength int64     `json:"content_length" yaml:"content_length"`
	ContentType   string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified  time.Time `json:"last_modified" yaml:"last_modified"`

	// LastModifiedEpochMillis is LastModified in Unix milliseconds.
	LastModifiedEpochMillis int64 `json:"last_modified_epoch_ms" yaml:"last_modified_epoch_ms"`
}

// ContentRecord is the payload for the leading bytes of an object.
type ContentRecord struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`

	// Bytes is the number of bytes read.
	Bytes int64 `json:"bytes"`

	// Data is the content; encoding/json emits it as base64.
	Data []byte `json:"data"`
}

// ResultRecord is the payload for a put or delete outcome.
type ResultRecord struct {
	// Op is "put" or "delete".
	Op     string `json:"op"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`

	// Success is the provider's success flag.
	Success bool `json:"success"`

	// Bytes is the declared upload length (put only).
	Bytes int64 `json:"bytes,omitempty"`
}

// ErrorRecord is the payload for errors.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Bucket and Key locate the failure, if applicable.
	Bucket string `json:"bucket,omitempty"`
	Key    string `json:"key,omitempty"`

	// Status is the provider HTTP status, if the request got that far.
	Status int `json:"status,omitempty"`
}

// Error codes for ErrorRecord.
const (
	ErrCodeAccessDenied       = "ACCESS_DENIED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBucketNotFound     = "BUCKET_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeThrottled          = "THROTTLED"
	ErrCodeUnavailable        = "UNAVAILABLE"
	ErrCodeParse              = "MALFORMED_RESPONSE"
	ErrCodeOperationFailed    = "OPERATION_FAILED"
	ErrCodeTransport          = "TRANSPORT"
)

// ErrorCode classifies err into one of the ErrCode constants.
//
// Errors outside the provider taxonomy are transport failures.
func ErrorCode(err error) string {
	switch {
	case provider.IsBucketNotFound(err):
		return ErrCodeBucketNotFound
	case provider.IsNotFound(err):
		return ErrCodeNotFound
	case provider.IsAccessDenied(err):
		return ErrCodeAccessDenied
	case provider.IsInvalidCredentials(err):
		return ErrCodeInvalidCredentials
	case provider.IsThrottled(err):
		return ErrCodeThrottled
	case provider.IsProviderUnavailable(err):
		return ErrCodeUnavailable
	case provider.IsParseError(err):
		return ErrCodeParse
	case provider.IsOperationFailed(err):
		return ErrCodeOperationFailed
	default:
		return ErrCodeTransport
	}
}

// NewErrorRecord builds an ErrorRecord from err.
func NewErrorRecord(err error, bucket, key string) *ErrorRecord {
	rec := &ErrorRecord{
		Code:    ErrorCode(err),
		Message: err.Error(),
		Bucket:  bucket,
		Key:     key,
	}
	var opErr *provider.OperationError
	if errors.As(err, &opErr) {
		rec.Status = opErr.StatusCode
	}
	return rec
}

// NewMetadataRecord converts head metadata.
func NewMetadataRecord(meta *provider.ObjectMetadata) *MetadataRecord {
	return &MetadataRecord{
		Bucket:                  meta.Bucket,
		Key:                     meta.Key,
		DisplayName:             meta.DisplayName,
		ContentLength:           meta.ContentLength,
		ContentType:             meta.ContentType,
		LastModified:            meta.LastModified(),
		LastModifiedEpochMillis: meta.LastModifiedEpochMillis,
	}
}

// SummaryRecord is the payload for the end of a listing.
type SummaryRecord struct {
	// Bucket is the bucket name reported by the provider.
	Bucket string `json:"bucket"`

	// ObjectsFound is the number of entries in the page.
	ObjectsFound int64 `json:"objects_found"`

	// ObjectsMatched is the number of entries that passed filters.
	ObjectsMatched int64 `json:"objects_matched"`

	// BytesTotal is the cumulative size of matched entries in bytes.
	BytesTotal int64 `json:"bytes_total"`

	// PrefixesFound is the number of common prefixes in the page.
	PrefixesFound int64 `json:"prefixes_found,omitempty"`

	// IsTruncated reports that more entries exist; they were not fetched.
	IsTruncated bool `json:"is_truncated"`

	// NextMarker is the marker to pass for the next page, if any.
	NextMarker string `json:"next_marker,omitempty"`

	// Duration is the total listing duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

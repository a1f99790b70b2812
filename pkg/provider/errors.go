package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for provider operations.
var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrBucketNotFound indicates the bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderUnavailable indicates the provider service is unavailable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrThrottled indicates the request was rate limited by the provider.
	ErrThrottled = errors.New("request throttled")

	// ErrOperationFailed is the catch-all for non-2xx responses that map to
	// no more specific sentinel.
	ErrOperationFailed = errors.New("operation failed")

	// ErrParse indicates a success response whose payload could not be
	// interpreted.
	ErrParse = errors.New("malformed response")
)

// OperationError reports a non-2xx response on an operation that treats
// failure as an error (put and list).
type OperationError struct {
	// Op is the operation that failed (e.g., "Put", "List").
	Op string

	// Provider is the provider type (e.g., "s3").
	Provider ProviderType

	// Bucket is the bucket name, if applicable.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the HTTP status message.
	Status string

	// Body is the raw response body text, unmodified.
	Body string

	// Err is the sentinel classifying the failure.
	Err error

	// APIError is the provider error decoded from Body, if any
	// (a smithy.APIError).
	APIError error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	target := e.Bucket
	if e.Key != "" {
		target = e.Bucket + "/" + e.Key
	}
	msg := fmt.Sprintf("%s %s: %s: status %d", e.Provider, e.Op, target, e.StatusCode)
	if e.APIError != nil {
		msg += ": " + e.APIError.Error()
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the decoded provider error for
// errors.Is/As.
func (e *OperationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.APIError != nil {
		errs = append(errs, e.APIError)
	}
	return errs
}

// ParseError reports a success response with a malformed payload: an
// unparseable date, malformed XML, or a non-integer size.
type ParseError struct {
	// Op is the operation whose response was being parsed.
	Op string

	// Field names the element or header that failed (e.g., "Last-Modified").
	Field string

	// Value is the offending raw value, if short enough to be useful.
	Value string

	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: parse %s %q: %v", e.Op, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: parse %s: %v", e.Op, e.Field, e.Err)
}

// Unwrap returns ErrParse and the underlying error.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// SentinelForStatus maps an HTTP status code to a sentinel error.
func SentinelForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusTooManyRequests:
		return ErrThrottled
	case http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return ErrProviderUnavailable
	default:
		return ErrOperationFailed
	}
}

// SentinelForCode maps a provider error code to a sentinel error.
// It returns nil for unknown codes.
func SentinelForCode(code string) error {
	switch code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	case "NoSuchBucket":
		return ErrBucketNotFound
	case "AccessDenied", "Forbidden":
		return ErrAccessDenied
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return ErrInvalidCredentials
	case "SlowDown", "Throttling", "RequestLimitExceeded":
		return ErrThrottled
	case "ServiceUnavailable", "InternalError":
		return ErrProviderUnavailable
	}
	return nil
}

// IsNotFound returns true if the error indicates an object was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsBucketNotFound returns true if the error indicates the bucket does not exist.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsInvalidCredentials returns true if the error indicates authentication failed.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// IsProviderUnavailable returns true if the error indicates the provider service is unavailable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsThrottled returns true if the error indicates the request was rate limited.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsOperationFailed returns true if err is (or wraps) an *OperationError.
func IsOperationFailed(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr)
}

// IsParseError returns true if the error is a response parse failure.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

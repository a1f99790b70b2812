package provider

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a.txt", "a.txt"},
		{"dir/sub/file.bin", "file.bin"},
		{"/rooted/file", "file"},
		{"dir/", "dir"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.key))
		})
	}
}

func TestObjectMetadata_LastModified(t *testing.T) {
	meta := &ObjectMetadata{LastModifiedEpochMillis: 1445412480000}
	assert.Equal(t, time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC), meta.LastModified())
}

func TestS3Object_Close(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("x")}
	obj := &S3Object{Bucket: "b", Key: "k", Content: body}

	require.NoError(t, obj.Close())
	assert.True(t, body.closed)

	var nilObj *S3Object
	assert.NoError(t, nilObj.Close())
	assert.NoError(t, (&S3Object{}).Close())
}

func TestProviderType_String(t *testing.T) {
	assert.Equal(t, "s3", ProviderS3.String())
}

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name: "with key",
			err: &OperationError{
				Op:         "Put",
				Provider:   ProviderS3,
				Bucket:     "my-bucket",
				Key:        "path/to/file.txt",
				StatusCode: 403,
				Err:        ErrAccessDenied,
			},
			expected: "s3 Put: my-bucket/path/to/file.txt: status 403: access denied",
		},
		{
			name: "without key",
			err: &OperationError{
				Op:         "List",
				Provider:   ProviderS3,
				Bucket:     "my-bucket",
				StatusCode: 404,
				Err:        ErrBucketNotFound,
			},
			expected: "s3 List: my-bucket: status 404: bucket not found",
		},
		{
			name: "api error preferred",
			err: &OperationError{
				Op:         "Put",
				Provider:   ProviderS3,
				Bucket:     "b",
				Key:        "k",
				StatusCode: 500,
				Err:        ErrProviderUnavailable,
				APIError:   errors.New("api error InternalError: We encountered an internal error"),
			},
			expected: "s3 Put: b/k: status 500: api error InternalError: We encountered an internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	apiErr := errors.New("decoded")
	err := error(&OperationError{Op: "Put", Err: ErrNotFound, APIError: apiErr})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, apiErr))
	assert.False(t, errors.Is(err, ErrAccessDenied))
	assert.True(t, IsOperationFailed(err))
	assert.False(t, IsParseError(err))

	assert.Empty(t, (&OperationError{}).Unwrap())
}

func TestParseError(t *testing.T) {
	underlying := errors.New("bad digit")
	err := error(&ParseError{Op: "List", Field: "Size", Value: "ten", Err: underlying})

	assert.Equal(t, `List: parse Size "ten": bad digit`, err.Error())
	assert.True(t, IsParseError(err))
	assert.True(t, errors.Is(err, underlying))
	assert.False(t, IsOperationFailed(err))

	noValue := &ParseError{Op: "Head", Field: "Last-Modified", Err: underlying}
	assert.Equal(t, "Head: parse Last-Modified: bad digit", noValue.Error())
	assert.True(t, IsParseError(&ParseError{Op: "List"}))
}

func TestSentinelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{404, ErrNotFound},
		{403, ErrAccessDenied},
		{401, ErrInvalidCredentials},
		{429, ErrThrottled},
		{500, ErrProviderUnavailable},
		{503, ErrProviderUnavailable},
		{400, ErrOperationFailed},
		{409, ErrOperationFailed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SentinelForStatus(tt.status), "status %d", tt.status)
	}
}

func TestSentinelForCode(t *testing.T) {
	assert.Equal(t, ErrNotFound, SentinelForCode("NoSuchKey"))
	assert.Equal(t, ErrBucketNotFound, SentinelForCode("NoSuchBucket"))
	assert.Equal(t, ErrAccessDenied, SentinelForCode("AccessDenied"))
	assert.Equal(t, ErrInvalidCredentials, SentinelForCode("SignatureDoesNotMatch"))
	assert.Equal(t, ErrThrottled, SentinelForCode("SlowDown"))
	assert.Equal(t, ErrProviderUnavailable, SentinelForCode("InternalError"))
	assert.Nil(t, SentinelForCode("SomethingElse"))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(&OperationError{Err: ErrNotFound}))
	assert.True(t, IsAccessDenied(&OperationError{Err: ErrAccessDenied}))
	assert.True(t, IsBucketNotFound(&OperationError{Err: ErrBucketNotFound}))
	assert.True(t, IsInvalidCredentials(&OperationError{Err: ErrInvalidCredentials}))
	assert.True(t, IsProviderUnavailable(&OperationError{Err: ErrProviderUnavailable}))
	assert.True(t, IsThrottled(&OperationError{Err: ErrThrottled}))
	assert.False(t, IsNotFound(errors.New("some error")))
	assert.False(t, IsThrottled(ErrProviderUnavailable))
}

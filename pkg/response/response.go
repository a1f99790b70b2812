// Package response translates raw transport responses into the results of
// the five storage operations.
//
// Outcomes follow one policy per operation:
//   - Put and List treat a non-2xx status as an *provider.OperationError.
//   - Get and Head treat a non-2xx status as an absent result (nil, nil).
//   - Delete reports the success flag and never fails.
//   - A malformed success payload is a *provider.ParseError.
//
// Every function takes ownership of resp.Body: it is either closed or, for
// a successful Get, handed to the returned object.
package response

import (
	"errors"
	"io"
	"strconv"

	"github.com/3leaps/bucketagent/pkg/provider"
	"github.com/3leaps/bucketagent/pkg/request"
	"github.com/3leaps/bucketagent/pkg/transport"
)

// Operation identifies one of the five storage operations.
type Operation int

const (
	OpPut Operation = iota
	OpGet
	OpHead
	OpList
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpPut:
		return "Put"
	case OpGet:
		return "Get"
	case OpHead:
		return "Head"
	case OpList:
		return "List"
	case OpDelete:
		return "Delete"
	default:
		return "Operation(" + strconv.Itoa(int(o)) + ")"
	}
}

var errMissingHeader = errors.New("header missing")

// Put translates an upload response.
func Put(resp *transport.Response, bucket, key string) error {
	if resp.Success() {
		_ = resp.Close()
		return nil
	}
	return operationError(OpPut, resp, bucket, key)
}

// Get translates a download response.
//
// A 2xx response with a body yields an object that owns the body. A 2xx
// response without a body and any non-2xx response both yield nil: an
// empty object is indistinguishable from a missing one.
func Get(resp *transport.Response, bucket, key string) *provider.S3Object {
	if !resp.Success() || resp.Body == nil {
		_ = resp.Close()
		return nil
	}
	return &provider.S3Object{
		Bucket:  bucket,
		Key:     key,
		Content: resp.Body,
	}
}

// Head translates a metadata response.
//
// Content-Length defaults to 0 when missing or unparseable; Content-Type
// defaults to "". Last-Modified is required.
func Head(resp *transport.Response, bucket, key string) (*provider.ObjectMetadata, error) {
	defer resp.Close()

	if !resp.Success() {
		return nil, nil
	}

	var length int64
	if raw := header(resp, "Content-Length"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 {
			length = n
		}
	}

	rawModified := header(resp, "Last-Modified")
	if rawModified == "" {
		return nil, &provider.ParseError{Op: OpHead.String(), Field: "Last-Modified", Err: errMissingHeader}
	}
	modified, err := request.ParseDate(rawModified)
	if err != nil {
		return nil, &provider.ParseError{Op: OpHead.String(), Field: "Last-Modified", Value: rawModified, Err: err}
	}

	return &provider.ObjectMetadata{
		Bucket:                  bucket,
		Key:                     key,
		DisplayName:             provider.DisplayName(key),
		ContentLength:           length,
		ContentType:             header(resp, "Content-Type"),
		LastModifiedEpochMillis: modified.UnixMilli(),
	}, nil
}

// Delete translates a delete response. It returns exactly the success flag.
func Delete(resp *transport.Response) bool {
	defer resp.Close()
	return resp.Success()
}

// List translates a bucket listing response.
func List(resp *transport.Response, bucket string) (*provider.ObjectListing, error) {
	if !resp.Success() {
		return nil, operationError(OpList, resp, bucket, "")
	}
	defer resp.Close()

	if resp.Body == nil {
		return nil, &provider.ParseError{Op: OpList.String(), Field: "body", Err: errEmptyDocument}
	}
	return ParseListing(resp.Body, bucket)
}

// operationError reads the body and closes the response. A nil response
// yields an OperationError with status 0.
func operationError(op Operation, resp *transport.Response, bucket, key string) error {
	if resp == nil {
		return &provider.OperationError{
			Op:       op.String(),
			Provider: provider.ProviderS3,
			Bucket:   bucket,
			Key:      key,
			Status:   "no response",
			Err:      provider.ErrOperationFailed,
		}
	}
	defer resp.Close()

	var body []byte
	if resp.Body != nil {
		// A partial body is still useful for diagnostics.
		body, _ = io.ReadAll(resp.Body)
	}

	opErr := &provider.OperationError{
		Op:         op.String(),
		Provider:   provider.ProviderS3,
		Bucket:     bucket,
		Key:        key,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
		Err:        provider.SentinelForStatus(resp.StatusCode),
	}

	if apiErr := DecodeAPIError(resp.StatusCode, body); apiErr != nil {
		opErr.APIError = apiErr
		if sentinel := provider.SentinelForCode(apiErr.ErrorCode()); sentinel != nil {
			opErr.Err = sentinel
		}
	}

	return opErr
}

func header(resp *transport.Response, name string) string {
	return resp.Header.Get(name)
}

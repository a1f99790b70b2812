package response

import (
	"bytes"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DecodeAPIError decodes an S3 XML error body into a smithy.APIError.
//
// NoSuchKey and NoSuchBucket become the typed errors from the s3 types
// package; any other code becomes a *smithy.GenericAPIError. It returns nil
// when body is not an <Error> document with a Code.
func DecodeAPIError(status int, body []byte) smithy.APIError {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	root, err := ParseTree(bytes.NewReader(body))
	if err != nil || root.Name != "Error" {
		return nil
	}

	code, _ := root.ChildText("Code")
	if code == "" {
		return nil
	}
	message, _ := root.ChildText("Message")

	switch code {
	case "NoSuchKey":
		return &types.NoSuchKey{Message: aws.String(message)}
	case "NoSuchBucket":
		return &types.NoSuchBucket{Message: aws.String(message)}
	}

	fault := smithy.FaultClient
	if status >= http.StatusInternalServerError {
		fault = smithy.FaultServer
	}
	return &smithy.GenericAPIError{
		Code:    code,
		Message: message,
		Fault:   fault,
	}
}

package auth

import (
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrMissingCredentials is returned when an access key or secret key is empty.
var ErrMissingCredentials = errors.New("auth: access key and secret key are required")

// Credentials is a static access key pair.
//
// Credentials are held by value for the lifetime of an agent and never
// mutated. The secret key only ever leaves this package through Sign.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Validate checks that both halves of the key pair are present.
func (c Credentials) Validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

// String redacts the secret key.
func (c Credentials) String() string {
	return "Credentials{AccessKey: " + c.AccessKey + ", SecretKey: <redacted>}"
}

// GoString redacts the secret key for %#v.
func (c Credentials) GoString() string {
	return c.String()
}

// MarshalLogObject implements zapcore.ObjectMarshaler without the secret key.
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("access_key", c.AccessKey)
	return nil
}

// ZapField returns a zap field that logs the access key only.
func (c Credentials) ZapField() zap.Field {
	return zap.Object("credentials", c)
}

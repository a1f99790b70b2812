package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// Scheme is the Authorization scheme literal for HMAC-SHA1 signed requests.
const Scheme = "AWS"

// Sign returns base64(HMAC-SHA1(secretKey, stringToSign)).
//
// stringToSign is hashed byte for byte; callers must not trim or re-encode it.
func Sign(secretKey, stringToSign string) string {
	m := hmac.New(sha1.New, []byte(secretKey))
	_, _ = m.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(m.Sum(nil))
}

// AuthorizationHeader formats "AWS <accessKey>:<signature>".
func AuthorizationHeader(accessKey, secretKey, stringToSign string) string {
	return Scheme + " " + accessKey + ":" + Sign(secretKey, stringToSign)
}

// Authorize signs stringToSign with c.
func (c Credentials) Authorize(stringToSign string) string {
	return AuthorizationHeader(c.AccessKey, c.SecretKey, stringToSign)
}

// Package auth computes request signatures for the legacy "AWS" HMAC-SHA1
// signing scheme.
//
// Signing is split into two pure steps:
//   - Canonicalization: CanonicalResource and StringToSign build the exact
//     byte sequence the provider expects to have been signed.
//   - Signing: Sign and AuthorizationHeader compute the keyed hash over that
//     sequence and format the Authorization header value.
//
// Known limitation: x-amz-* extension headers are never canonicalized.
// Provider features that require them (server-side encryption headers,
// user metadata, session tokens) are unsupported and must not be sent.
package auth

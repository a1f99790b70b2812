package auth

import "strings"

// CanonicalResource returns the signing form of a request path.
//
// The result is "/" + bucket + path, where path is cut at the first '?' or
// '#' so that list queries never leak into the signature. A non-empty
// subresource (e.g. "acl") is appended as "?subresource".
func CanonicalResource(bucket, path, subresource string) string {
	path = StripQuery(path)

	var b strings.Builder
	b.Grow(1 + len(bucket) + len(path) + len(subresource) + 1)
	b.WriteByte('/')
	b.WriteString(bucket)
	b.WriteString(path)
	if subresource != "" {
		b.WriteByte('?')
		b.WriteString(subresource)
	}
	return b.String()
}

// StripQuery returns the portion of path before any query or fragment.
func StripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}

// StringToSign joins the signed fields with newlines:
//
//	method \n content-md5 \n content-type \n date \n canonical-resource
//
// Absent MD5 or content type are empty fields. There is no trailing newline.
func StringToSign(method, contentMD5, contentType, date, resource string) string {
	return strings.Join([]string{method, contentMD5, contentType, date, resource}, "\n")
}

package request

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultAPISuffix is the provider's API domain.
const DefaultAPISuffix = "amazonaws.com"

// VirtualHostForBucket returns "<bucket>.<region>.amazonaws.com".
//
// Only virtual-hosted addressing is produced; path-style is unsupported.
func VirtualHostForBucket(bucket, region string) string {
	return virtualHost(bucket, region, DefaultAPISuffix)
}

func virtualHost(bucket, region, suffix string) string {
	return bucket + "." + region + "." + suffix
}

// PathForKey returns the request path for an object key.
//
// The key is percent-encoded as a single path segment, so '/' inside the key
// becomes %2F. A leading "/" is added only when the key does not already
// start with one. As a result a key with a leading slash is encoded whole and
// yields a path that is not rooted at "/":
//
//	PathForKey("a/b")  == "/a%2Fb"
//	PathForKey("/a/b") == "%2Fa%2Fb"
//
// Such paths cannot form a valid URL; the behavior is kept for compatibility
// and is covered by a regression test.
func PathForKey(key string) string {
	if strings.HasPrefix(key, "/") {
		return url.PathEscape(key)
	}
	return "/" + url.PathEscape(key)
}

// ListQuery holds the optional bucket listing parameters.
type ListQuery struct {
	Prefix    string
	Marker    string
	Delimiter string
	MaxKeys   int
}

// ListPath returns "/?" followed by the supplied listing parameters joined
// with '&', in the order prefix, marker, delimiter, max-keys. Empty values
// (and MaxKeys <= 0) are omitted.
//
// Values are not percent-encoded. A value containing '&', '=' or '#' will
// corrupt the query.
func ListPath(q ListQuery) string {
	params := make([]string, 0, 4)
	if q.Prefix != "" {
		params = append(params, "prefix="+q.Prefix)
	}
	if q.Marker != "" {
		params = append(params, "marker="+q.Marker)
	}
	if q.Delimiter != "" {
		params = append(params, "delimiter="+q.Delimiter)
	}
	if q.MaxKeys > 0 {
		params = append(params, "max-keys="+strconv.Itoa(q.MaxKeys))
	}
	return "/?" + strings.Join(params, "&")
}

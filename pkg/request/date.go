package request

import (
	"fmt"
	"net/http"
	"time"
)

// DateLayout is the Date header format, always rendered in UTC
// (e.g. "Wed, 21 Oct 2015 07:28:00 +0000").
const DateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// FormatDate renders t in DateLayout in the UTC zone.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a provider date header.
//
// Accepted forms are DateLayout ("+0000" offsets) and the HTTP date forms
// understood by http.ParseTime ("GMT" suffix, RFC 850, ANSI C). Anything else
// is an error; callers must not substitute a default.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := http.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t.UTC(), nil
}

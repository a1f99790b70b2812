// Package match filters listing entries by glob pattern and size.
package match

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher evaluates doublestar patterns against object keys.
//
//   - Include patterns: key must match at least one
//   - Exclude patterns: key must not match any
//
// The Matcher is safe for concurrent use after creation.
type Matcher struct {
	includes      []string
	excludes      []string
	includeHidden bool
}

// Config configures a Matcher.
type Config struct {
	// Includes are glob patterns keys must match (at least one).
	Includes []string

	// Excludes are glob patterns keys must not match (any).
	Excludes []string

	// IncludeHidden controls whether keys with a segment starting with '.'
	// can match. Default: false.
	IncludeHidden bool
}

// Errors returned by Matcher operations.
var (
	// ErrNoIncludes is returned when no include patterns are provided.
	ErrNoIncludes = errors.New("at least one include pattern is required")

	// ErrInvalidPattern is returned when a pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// New creates a Matcher. Every pattern is validated up front.
func New(cfg Config) (*Matcher, error) {
	if len(cfg.Includes) == 0 {
		return nil, ErrNoIncludes
	}

	for _, p := range append(append([]string{}, cfg.Includes...), cfg.Excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p, Err: ErrInvalidPattern}
		}
	}

	return &Matcher{
		includes:      append([]string(nil), cfg.Includes...),
		excludes:      append([]string(nil), cfg.Excludes...),
		includeHidden: cfg.IncludeHidden,
	}, nil
}

// Match reports whether key passes the include/exclude patterns.
// Keys are matched as-is; object keys are opaque strings.
func (m *Matcher) Match(key string) bool {
	if !m.includeHidden && IsHidden(key) {
		return false
	}

	matched := false
	for _, inc := range m.includes {
		if matchPattern(inc, key) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, exc := range m.excludes {
		if matchPattern(exc, key) {
			return false
		}
	}
	return true
}

// ListPrefix returns the longest literal prefix shared by every include
// pattern. It can be sent as the listing prefix to narrow the page the
// provider returns; "" means no narrowing is possible.
func (m *Matcher) ListPrefix() string {
	prefix := LiteralPrefix(m.includes[0])
	for _, inc := range m.includes[1:] {
		prefix = commonPrefix(prefix, LiteralPrefix(inc))
	}
	return prefix
}

// IncludePatterns returns the include patterns.
func (m *Matcher) IncludePatterns() []string {
	return append([]string(nil), m.includes...)
}

// ExcludePatterns returns the exclude patterns.
func (m *Matcher) ExcludePatterns() []string {
	return append([]string(nil), m.excludes...)
}

// LiteralPrefix returns the part of pattern before its first glob
// metacharacter.
//
//	LiteralPrefix("logs/2024/*.gz") == "logs/2024/"
//	LiteralPrefix("**/*.txt")       == ""
func LiteralPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[{\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// SplitPattern returns the literal text before the first unescaped glob
// metacharacter, with backslash escapes removed, and whether such a
// metacharacter exists.
//
//	SplitPattern(`data/file\*.txt`)  == "data/file*.txt", false
//	SplitPattern(`data/file\*/*.txt`) == "data/file*/", true
func SplitPattern(pattern string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			if i+1 < len(pattern) {
				i++
				c = pattern[i]
			}
		case '*', '?', '[', '{':
			return b.String(), true
		}
		b.WriteByte(c)
	}
	return b.String(), false
}

// IsHidden reports whether any '/'-separated segment of key starts with '.'.
func IsHidden(key string) bool {
	for _, seg := range strings.Split(key, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func matchPattern(pattern, key string) bool {
	matched, err := doublestar.Match(pattern, key)
	if err != nil {
		// Validated in New.
		return false
	}
	return matched
}

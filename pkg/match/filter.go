package match

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/3leaps/bucketagent/pkg/provider"
)

// Filter evaluates whether a listing entry passes filter criteria.
//
// Filters see only what a listing returns (key and size); they never
// trigger extra requests.
type Filter interface {
	// Match returns true if the entry passes the filter.
	Match(obj *provider.ObjectSummary) bool

	// String returns a human-readable description of the filter.
	String() string
}

// ErrInvalidSize is returned for unparseable or inconsistent sizes.
var ErrInvalidSize = errors.New("invalid size value")

// SizeFilter filters entries by size range.
type SizeFilter struct {
	min int64 // -1 means no minimum
	max int64 // -1 means no maximum
}

// NewSizeFilter creates a size filter from human-readable bounds
// ("1KB", "100MiB"). Empty bounds are open. Returns nil when both are empty.
func NewSizeFilter(minSize, maxSize string) (*SizeFilter, error) {
	if minSize == "" && maxSize == "" {
		return nil, nil
	}

	f := &SizeFilter{min: -1, max: -1}

	if minSize != "" {
		size, err := ParseSize(minSize)
		if err != nil {
			return nil, fmt.Errorf("min size: %w", err)
		}
		f.min = size
	}

	if maxSize != "" {
		size, err := ParseSize(maxSize)
		if err != nil {
			return nil, fmt.Errorf("max size: %w", err)
		}
		f.max = size
	}

	if f.min >= 0 && f.max >= 0 && f.min > f.max {
		return nil, fmt.Errorf("%w: min (%d) > max (%d)", ErrInvalidSize, f.min, f.max)
	}

	return f, nil
}

// Match returns true if the entry size is within the configured range.
func (f *SizeFilter) Match(obj *provider.ObjectSummary) bool {
	if f.min >= 0 && obj.SizeBytes < f.min {
		return false
	}
	if f.max >= 0 && obj.SizeBytes > f.max {
		return false
	}
	return true
}

func (f *SizeFilter) String() string {
	switch {
	case f.min >= 0 && f.max >= 0:
		return fmt.Sprintf("size: %s - %s", FormatSize(f.min), FormatSize(f.max))
	case f.min >= 0:
		return fmt.Sprintf("size: >= %s", FormatSize(f.min))
	case f.max >= 0:
		return fmt.Sprintf("size: <= %s", FormatSize(f.max))
	default:
		return "size: any"
	}
}

// KeyFilter adapts a Matcher to the Filter interface.
type KeyFilter struct {
	m *Matcher
}

// NewKeyFilter wraps m. Returns nil for a nil Matcher.
func NewKeyFilter(m *Matcher) *KeyFilter {
	if m == nil {
		return nil
	}
	return &KeyFilter{m: m}
}

// Match returns true if the entry key passes the matcher.
func (f *KeyFilter) Match(obj *provider.ObjectSummary) bool {
	return f.m.Match(obj.Key)
}

func (f *KeyFilter) String() string {
	s := "keys: " + strings.Join(f.m.includes, ", ")
	if len(f.m.excludes) > 0 {
		s += " except " + strings.Join(f.m.excludes, ", ")
	}
	return s
}

// Chain combines filters with AND semantics.
type Chain []Filter

// NewChain builds a Chain, skipping nil filters. Typed nil pointers
// (as returned by NewSizeFilter and NewKeyFilter) count as nil.
func NewChain(filters ...Filter) Chain {
	var out Chain
	for _, f := range filters {
		switch v := f.(type) {
		case nil:
		case *SizeFilter:
			if v != nil {
				out = append(out, v)
			}
		case *KeyFilter:
			if v != nil {
				out = append(out, v)
			}
		default:
			out = append(out, f)
		}
	}
	return out
}

// Match returns true if every filter passes. An empty Chain matches all.
func (c Chain) Match(obj *provider.ObjectSummary) bool {
	for _, f := range c {
		if !f.Match(obj) {
			return false
		}
	}
	return true
}

func (c Chain) String() string {
	if len(c) == 0 {
		return "no filters"
	}
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// Apply returns the entries passing c, in order.
func (c Chain) Apply(entries []provider.ObjectSummary) []provider.ObjectSummary {
	out := make([]provider.ObjectSummary, 0, len(entries))
	for i := range entries {
		if c.Match(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// Size unit multipliers.
const (
	Byte int64 = 1

	// Base-10 (SI) units
	KB int64 = 1000
	MB int64 = 1000 * KB
	GB int64 = 1000 * MB
	TB int64 = 1000 * GB

	// Base-2 (IEC) units
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// ParseSize parses a human-readable size string.
//
// Supported formats:
//   - Raw bytes: "1024", "104857600"
//   - Base-10 (SI): "1KB", "100MB", "1GB" (1KB = 1000 bytes)
//   - Base-2 (IEC): "1KiB", "100MiB", "1GiB" (1KiB = 1024 bytes)
//   - Case insensitive: "1kb", "1KB", "1Kb" all work
//
// Note: KB/MB/GB use base-10 (SI standard), KiB/MiB/GiB use base-2 (IEC).
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidSize
	}

	// Find where the numeric part ends
	numEnd := 0
	for i, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	numStr := s[:numEnd]
	unitStr := strings.TrimSpace(s[numEnd:])

	// Parse unit
	var multiplier int64
	switch strings.ToUpper(unitStr) {
	case "", "B":
		multiplier = Byte
	case "K", "KB":
		multiplier = KB
	case "M", "MB":
		multiplier = MB
	case "G", "GB":
		multiplier = GB
	case "T", "TB":
		multiplier = TB
	case "KI", "KIB":
		multiplier = KiB
	case "MI", "MIB":
		multiplier = MiB
	case "GI", "GIB":
		multiplier = GiB
	case "TI", "TIB":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unitStr)
	}

	// Parse numeric part
	if strings.Contains(numStr, ".") {
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		if num < 0 {
			return 0, fmt.Errorf("%w: negative size", ErrInvalidSize)
		}
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return 0, fmt.Errorf("%w: invalid number", ErrInvalidSize)
		}

		bytes := num * float64(multiplier)
		maxInt64Float := float64(int64(^uint64(0) >> 1))
		if bytes > maxInt64Float {
			return 0, fmt.Errorf("%w: size overflows int64", ErrInvalidSize)
		}

		return int64(bytes), nil
	}

	n, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	mult := uint64(multiplier)
	maxInt64 := ^uint64(0) >> 1
	if mult == 0 || n > maxInt64/mult {
		return 0, fmt.Errorf("%w: size overflows int64", ErrInvalidSize)
	}

	return int64(n * mult), nil
}

// FormatSize formats bytes as human-readable string using base-2 units.
func FormatSize(bytes int64) string {
	switch {
	case bytes >= TiB:
		return fmt.Sprintf("%.1fTiB", float64(bytes)/float64(TiB))
	case bytes >= GiB:
		return fmt.Sprintf("%.1fGiB", float64(bytes)/float64(GiB))
	case bytes >= MiB:
		return fmt.Sprintf("%.1fMiB", float64(bytes)/float64(MiB))
	case bytes >= KiB:
		return fmt.Sprintf("%.1fKiB", float64(bytes)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

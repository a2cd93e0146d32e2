// Package bytesize parses and formats human-readable byte sizes using
// binary (1024) units.
//
// Examples:
//   - "5MB" = 5 * 1024 * 1024 bytes
//   - "1.5 GB" = 1.5 * 1024^3 bytes
//   - "1024" = 1024 bytes (no unit = bytes)
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size int64

// Size constants using the binary (1024) base.
const (
	B  Size = 1
	KB      = 1024 * B
	MB      = 1024 * KB
	GB      = 1024 * MB
	TB      = 1024 * GB
)

// Parse parses strings like "5MB", "1.5 GB" or "1024". A bare number is
// bytes. Units are case-insensitive; KiB-style spellings are accepted.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	// Split at the first non-numeric rune; everything after is the unit.
	split := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}

	value, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid size %q", s)
	}

	unit, err := unitMultiplier(strings.TrimSpace(s[split:]))
	if err != nil {
		return 0, err
	}
	return Size(value * float64(unit)), nil
}

func unitMultiplier(unit string) (Size, error) {
	switch strings.ToLower(unit) {
	case "", "b":
		return B, nil
	case "k", "kb", "kib":
		return KB, nil
	case "m", "mb", "mib":
		return MB, nil
	case "g", "gb", "gib":
		return GB, nil
	case "t", "tb", "tib":
		return TB, nil
	default:
		return 0, fmt.Errorf("bytesize: unknown unit %q", unit)
	}
}

// Format renders a size using the largest unit with a value >= 1.
func Format(s Size) string {
	if s < 0 {
		return "-" + Format(-s)
	}

	units := []struct {
		size Size
		name string
	}{
		{TB, "TB"},
		{GB, "GB"},
		{MB, "MB"},
		{KB, "KB"},
	}
	for _, u := range units {
		if s >= u.size {
			return trimDecimal(float64(s)/float64(u.size)) + u.name
		}
	}
	return fmt.Sprintf("%dB", s)
}

// trimDecimal formats with at most two decimal places, dropping
// trailing zeros.
func trimDecimal(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	formatted := strconv.FormatFloat(v, 'f', 2, 64)
	formatted = strings.TrimRight(formatted, "0")
	return strings.TrimRight(formatted, ".")
}

// Bytes returns the size in bytes as int64.
func (s Size) Bytes() int64 {
	return int64(s)
}

// String returns the human-readable form.
func (s Size) String() string {
	return Format(s)
}

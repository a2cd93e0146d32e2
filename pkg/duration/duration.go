// Package duration parses duration strings that extend Go's standard
// format with day and week units.
//
// Examples:
//   - "30d" = 30 days
//   - "2 weeks" = 2 weeks
//   - "1w2d12h" = 1 week, 2 days, 12 hours
//   - "720h" = 720 hours (standard Go format still works)
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Day is 24 hours.
	Day = 24 * time.Hour
	// Week is 7 days.
	Week = 7 * Day
)

// extendedUnit matches day and week segments, with optional whitespace
// between the number and the unit: "30d", "30 days", "2weeks".
var extendedUnit = regexp.MustCompile(`(?i)(\d+)\s*(weeks?|w|days?|d)`)

// Parse parses a duration such as "30d", "2w" or "1w2d12h". Anything
// below a day is delegated to time.ParseDuration, so every standard Go
// form still works.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	var extended time.Duration
	rest := extendedUnit.ReplaceAllStringFunc(s, func(match string) string {
		sub := extendedUnit.FindStringSubmatch(match)
		n, _ := strconv.ParseInt(sub[1], 10, 64)
		if strings.HasPrefix(strings.ToLower(sub[2]), "w") {
			extended += time.Duration(n) * Week
		} else {
			extended += time.Duration(n) * Day
		}
		return ""
	})

	// time.ParseDuration does not accept whitespace between segments.
	rest = strings.Join(strings.Fields(rest), "")

	total := extended
	if rest != "" {
		parsed, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("duration: %w", err)
		}
		total += parsed
	}

	if negative {
		total = -total
	}
	return total, nil
}

package ingestor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Patterns for pulling a concrete date and clock time out of messy event
// names like "Northvale @ Eastport 11/06/2025 8:15 PM ET".
var (
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
	monthDatePattern   = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[ -](\d{1,2})(?:[, -]+(\d{4}))?`)
	clockPattern       = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::\d{2})?\s*(AM|PM)?\s*(ET|EST|EDT|CT|CST|CDT|MT|MST|MDT|PT|PST|PDT|UK|UTC)?`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Timezone abbreviations map to IANA zones so DST resolves correctly for
// the event's actual date.
var zonesByAbbr = map[string]string{
	"ET": "America/New_York", "EST": "America/New_York", "EDT": "America/New_York",
	"CT": "America/Chicago", "CST": "America/Chicago", "CDT": "America/Chicago",
	"MT": "America/Denver", "MST": "America/Denver", "MDT": "America/Denver",
	"PT": "America/Los_Angeles", "PST": "America/Los_Angeles", "PDT": "America/Los_Angeles",
	"UK": "Europe/London",
}

// extractEventTime parses the date and time embedded in an event name and
// returns the start instant in UTC. Returns nil when either part is missing
// or implausible. US date order (month first) is assumed for numeric dates.
func extractEventTime(name string, now time.Time) *time.Time {
	year, month, day, ok := extractDate(name, now)
	if !ok {
		return nil
	}

	m := clockPattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	meridiem := strings.ToUpper(m[3])
	zone := strings.ToUpper(m[4])

	switch meridiem {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return nil
	}

	loc := time.UTC
	if zoneName, ok := zonesByAbbr[zone]; ok {
		if l, err := time.LoadLocation(zoneName); err == nil {
			loc = l
		}
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, loc).UTC()
	return &t
}

// extractDate finds the first date in the name. Month-name dates without a
// year default to the current year.
func extractDate(name string, now time.Time) (int, time.Month, int, bool) {
	if m := numericDatePattern.FindStringSubmatch(name); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return year, time.Month(month), day, true
		}
		return 0, 0, 0, false
	}

	if m := monthDatePattern.FindStringSubmatch(name); m != nil {
		month, ok := monthsByPrefix[strings.ToLower(m[1])]
		if !ok {
			return 0, 0, 0, false
		}
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if day >= 1 && day <= 31 {
			return year, month, day, true
		}
	}

	return 0, 0, 0, false
}

package ticktick

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TickTick emits offsets without a colon ("+0000"), which RFC 3339 rejects.
var compactOffset = regexp.MustCompile(`([+-]\d{2})(\d{2})$`)

// ParseDate parses an upstream date-time such as "2019-11-13T03:00:00+0000".
// RFC 3339 input, with or without fractional seconds, is accepted as well.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	t, err := time.Parse(time.RFC3339, compactOffset.ReplaceAllString(s, "$1:$2"))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t in the upstream format.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-0700")
}

// LoadTimezone resolves an IANA timezone name. The empty name and "Local"
// are rejected so results never depend on the host configuration.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// TodayWindow returns the half-open interval [start, end) covering the
// calendar day of now in loc. end is the following local midnight, which
// is 23 or 25 hours away on DST transition days.
func TodayWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	y, m, d := local.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	end = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return start, end
}

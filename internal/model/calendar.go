package model

import (
	"strings"
	"time"
)

const (
	// DateLayout is the canonical attendance date format.
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical time-of-day format for marks.
	ClockLayout = "15:04"
)

// ParseDate parses a calendar date and returns it in canonical form.
func ParseDate(s string) (string, bool) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return d.Format(DateLayout), true
}

// ParseClock accepts HH:MM or HH:MM:SS and returns HH:MM. Seconds are
// dropped, so 08:00:30 and 08:00 address the same mark.
func ParseClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), true
		}
	}
	return "", false
}

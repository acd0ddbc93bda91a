package server

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseOptionalTime accepts RFC3339 or a bare date. A bare date with
// endOfDay set resolves to the last instant of that day so inclusive
// "to" filters behave as users expect.
func parseOptionalTime(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}

	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

// parseRequiredDate accepts RFC3339 or a bare date and rejects empty input.
func parseRequiredDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Parse(dateLayout, value)
}

package config

import (
	"fmt"
	"time"
)

const dateOnly = "2006-01-02"

// ParseSince parses a lower bound. A bare date means the start of that day
// in UTC. An empty string yields the zero time (unbounded).
func ParseSince(s string) (time.Time, error) {
	return parseBound(s, false)
}

// ParseUntil parses an upper bound. A bare date includes the whole day.
func ParseUntil(s string) (time.Time, error) {
	return parseBound(s, true)
}

func parseBound(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

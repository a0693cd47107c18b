package http

import (
	"errors"
	"strings"
	"time"

	"github.com/example/class-scheduler/internal/recurrence"
)

var errInvalidTimestamp = errors.New("must be an RFC 3339 timestamp or YYYY-MM-DDTHH:MM in the gym's time zone")

// localLayouts are accepted for wall-clock values without an offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidTimestamp
}

func parseOptionalTimestamp(value *string, loc *time.Location) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseTimestamp(*value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func parseDate(value string) (time.Time, error) {
	return recurrence.ParseDate(strings.TrimSpace(value))
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

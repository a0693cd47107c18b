package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Frequency represents supported recurrence intervals.
type Frequency string

const (
	// FrequencyDaily generates an occurrence for each day within the range.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly generates occurrences for the selected ISO weekdays.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly generates occurrences on the start date's day of month.
	FrequencyMonthly Frequency = "monthly"
)

const (
	// DefaultMaxOccurrences caps generation when a pattern does not set its own limit.
	DefaultMaxOccurrences = 100
	// HorizonMonths bounds generation relative to the start date.
	HorizonMonths = 3

	dateLayout = "2006-01-02"
)

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrInvalidClock indicates a wall-clock value is not formatted as HH:MM.
var ErrInvalidClock = errors.New("recurrence: clock time must be HH:MM")

// Pattern describes how a class repeats.
type Pattern struct {
	Frequency Frequency
	// Weekdays holds ISO weekday numbers (1=Monday ... 7=Sunday); used by weekly patterns only.
	Weekdays  []int
	StartDate time.Time
	// EndDate is inclusive. Nil means StartDate plus HorizonMonths.
	EndDate        *time.Time
	StartTime      string
	EndTime        string
	MaxOccurrences int
}

// Occurrence is one generated candidate window.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Engine expands patterns into occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that interprets wall-clock values in loc.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location reports the zone wall-clock values are interpreted in.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// EndBound returns the inclusive last calendar day generation may reach.
func EndBound(startDate time.Time, endDate *time.Time) time.Time {
	start := dateOnly(startDate)
	horizon := start.AddDate(0, HorizonMonths, 0)
	if endDate == nil {
		return horizon
	}
	end := dateOnly(*endDate)
	if end.Before(horizon) {
		return end
	}
	return horizon
}

// Generate walks every calendar day from the start date to the end bound and emits
// an occurrence for each qualifying day until the count cap is reached.
//
// The cursor always advances by one day, whatever the frequency. Monthly patterns
// anchored on a day missing from a month (e.g. the 31st) skip that month.
func (e *Engine) Generate(p Pattern) ([]Occurrence, error) {
	switch p.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, p.Frequency)
	}
	if _, err := ParseClock(p.StartTime); err != nil {
		return nil, err
	}
	if _, err := ParseClock(p.EndTime); err != nil {
		return nil, err
	}

	limit := p.MaxOccurrences
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}

	start := dateOnly(p.StartDate)
	end := EndBound(p.StartDate, p.EndDate)
	anchorDay := start.Day()

	occurrences := make([]Occurrence, 0)
	count := 0
	for cursor := start; !cursor.After(end) && count < limit; cursor = cursor.AddDate(0, 0, 1) {
		if !includes(p, cursor, anchorDay) {
			continue
		}
		occ, err := e.occurrenceOn(cursor, p.StartTime, p.EndTime)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occ)
		count++
	}

	return occurrences, nil
}

// At combines a calendar date with a wall-clock value in the engine's location.
func (e *Engine) At(date time.Time, clock string) (time.Time, error) {
	if _, err := ParseClock(clock); err != nil {
		return time.Time{}, err
	}
	stamp := dateOnly(date).Format(dateLayout) + "T" + clock + ":00"
	t, err := time.ParseInLocation("2006-01-02T15:04:05", stamp, e.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("recurrence: build timestamp %q: %w", stamp, err)
	}
	return t, nil
}

func (e *Engine) occurrenceOn(day time.Time, startClock, endClock string) (Occurrence, error) {
	start, err := e.At(day, startClock)
	if err != nil {
		return Occurrence{}, err
	}
	end, err := e.At(day, endClock)
	if err != nil {
		return Occurrence{}, err
	}
	return Occurrence{Start: start, End: end}, nil
}

func includes(p Pattern, day time.Time, anchorDay int) bool {
	switch p.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return slices.Contains(p.Weekdays, ISOWeekday(day))
	case FrequencyMonthly:
		return day.Day() == anchorDay
	default:
		return false
	}
}

// ISOWeekday returns the ISO weekday number with Sunday mapped to 7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ParseClock validates an HH:MM wall-clock value and returns it as an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	if len(value) != 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

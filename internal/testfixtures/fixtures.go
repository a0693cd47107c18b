package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
)

var classCounter uint64

// ClassOption configures a class built by NewClass.
type ClassOption func(*persistence.Class)

// NewClass returns a scheduled one-hour class in room-a starting at start.
func NewClass(start time.Time, opts ...ClassOption) persistence.Class {
	idx := atomic.AddUint64(&classCounter, 1)
	class := persistence.Class{
		ID:          fmt.Sprintf("fixture-class-%03d", idx),
		GymID:       "gym-1",
		Title:       fmt.Sprintf("Class %03d", idx),
		ClassTypeID: "class-type-1",
		LocationID:  "room-a",
		Capacity:    12,
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      persistence.StatusScheduled,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&class)
	}
	return class
}

// WithClassID overrides the generated identifier.
func WithClassID(id string) ClassOption {
	return func(c *persistence.Class) { c.ID = id }
}

// WithTitle overrides the generated title.
func WithTitle(title string) ClassOption {
	return func(c *persistence.Class) { c.Title = title }
}

// WithLocation places the class in locationID.
func WithLocation(locationID string) ClassOption {
	return func(c *persistence.Class) { c.LocationID = locationID }
}

// WithCoach assigns coachID to the class.
func WithCoach(coachID string) ClassOption {
	return func(c *persistence.Class) { c.CoachID = &coachID }
}

// WithDuration sets the end relative to the start.
func WithDuration(d time.Duration) ClassOption {
	return func(c *persistence.Class) { c.End = c.Start.Add(d) }
}

// WithStatus overrides the lifecycle status.
func WithStatus(status string) ClassOption {
	return func(c *persistence.Class) { c.Status = status }
}

// WithSeries links the class to seriesID as a recurring instance.
func WithSeries(seriesID string) ClassOption {
	return func(c *persistence.Class) {
		c.SeriesID = &seriesID
		c.IsRecurring = true
	}
}

// NewSeries returns a weekly Monday series in room-a covering January 2024.
func NewSeries(id string) persistence.Series {
	return persistence.Series{
		ID:             id,
		GymID:          "gym-1",
		Title:          "Morning Flow",
		ClassTypeID:    "class-type-1",
		LocationID:     "room-a",
		Capacity:       12,
		RecurrenceType: "weekly",
		RecurrenceDays: []int{1},
		StartDate:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		StartTime:      "08:00",
		EndTime:        "09:00",
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
}

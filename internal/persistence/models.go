package persistence

import "time"

// Class status values.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Series represents a persisted recurrence definition.
type Series struct {
	ID             string
	GymID          string
	Title          string
	Description    *string
	ClassTypeID    string
	LocationID     string
	CoachID        *string
	Capacity       int
	RecurrenceType string
	RecurrenceDays []int
	StartDate      time.Time
	EndDate        time.Time
	StartTime      string
	EndTime        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Class represents one concrete, bookable class session.
type Class struct {
	ID          string
	GymID       string
	Title       string
	Description *string
	ClassTypeID string
	LocationID  string
	CoachID     *string
	Capacity    int
	Start       time.Time
	End         time.Time
	Status      string
	IsRecurring bool
	SeriesID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClassFilter narrows class queries and deletes. Zero values are ignored.
type ClassFilter struct {
	GymID        string
	SeriesID     string
	StartsFrom   *time.Time
	StartsBefore *time.Time
	Statuses     []string
}

// OverlapQuery selects classes booked on a resource within a window.
// Exactly one of LocationID or CoachID is expected to be set.
type OverlapQuery struct {
	LocationID string
	CoachID    string
	Start      time.Time
	End        time.Time
	ExcludeID  string
}

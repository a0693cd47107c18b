package application

import "time"

// Class lifecycle states.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// RecurrenceType names one of the supported repeat kinds.
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// RecurrencePattern is the caller's description of a recurring class.
type RecurrencePattern struct {
	GymID          string         `json:"gym_id" validate:"required"`
	Title          string         `json:"title" validate:"required,max=200"`
	Description    *string        `json:"description"`
	ClassTypeID    string         `json:"class_type_id" validate:"required"`
	LocationID     string         `json:"location_id" validate:"required"`
	CoachID        *string        `json:"coach_id" validate:"omitnil,min=1"`
	Capacity       int            `json:"capacity" validate:"gt=0"`
	RecurrenceType RecurrenceType `json:"recurrence_type" validate:"required,oneof=daily weekly monthly"`
	// RecurrenceDays holds ISO weekdays (1=Monday ... 7=Sunday) and only applies to weekly patterns.
	RecurrenceDays []int      `json:"recurrence_days" validate:"dive,min=1,max=7"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	StartTime      string     `json:"start_time" validate:"required,clock"`
	EndTime        string     `json:"end_time" validate:"required,clock"`
	// MaxOccurrences caps generation; zero means the default of 100.
	MaxOccurrences int `json:"max_occurrences" validate:"gte=0"`
}

// SingleClassParams describes one standalone class.
type SingleClassParams struct {
	GymID       string    `json:"gym_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description *string   `json:"description"`
	ClassTypeID string    `json:"class_type_id" validate:"required"`
	LocationID  string    `json:"location_id" validate:"required"`
	CoachID     *string   `json:"coach_id" validate:"omitnil,min=1"`
	Capacity    int       `json:"capacity" validate:"gt=0"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
}

// ClassUpdate is a partial update; nil fields are left untouched.
type ClassUpdate struct {
	Title       *string    `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string    `json:"description"`
	ClassTypeID *string    `json:"class_type_id" validate:"omitnil,min=1"`
	LocationID  *string    `json:"location_id" validate:"omitnil,min=1"`
	CoachID     *string    `json:"coach_id" validate:"omitnil,min=1"`
	Capacity    *int       `json:"capacity" validate:"omitnil,gt=0"`
	Start       *time.Time `json:"start_time"`
	End         *time.Time `json:"end_time"`
	Status      *string    `json:"status" validate:"omitnil,oneof=scheduled cancelled completed"`
}

// ConflictRecord explains why a candidate occurrence was not booked. It is never persisted.
type ConflictRecord struct {
	Date   time.Time
	Reason string
}

// SeriesCreationResult reports a partially successful series creation.
type SeriesCreationResult struct {
	SeriesID       string
	ClassesCreated int
	Conflicts      []ConflictRecord
}

// SingleClassResult reports the outcome of creating one class.
type SingleClassResult struct {
	Success bool
	ClassID string
	Error   string
}

// UpdateResult reports the outcome of updating one class.
type UpdateResult struct {
	Success bool
	Error   string
}

// DeleteOption selects which occurrences a series delete removes.
type DeleteOption string

const (
	// DeleteFuture removes occurrences starting at or after now and keeps the series row.
	DeleteFuture DeleteOption = "future"
	// DeleteAll removes every occurrence and the series row.
	DeleteAll DeleteOption = "all"
)

// Series is a stored recurrence definition.
type Series struct {
	ID             string
	GymID          string
	Title          string
	Description    *string
	ClassTypeID    string
	LocationID     string
	CoachID        *string
	Capacity       int
	RecurrenceType RecurrenceType
	RecurrenceDays []int
	StartDate      time.Time
	EndDate        time.Time
	StartTime      string
	EndTime        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Class is one concrete bookable session.
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

// SeriesDetail is a series together with the occurrences still linked to it.
type SeriesDetail struct {
	Series  Series
	Classes []Class
}

// ListClassesParams narrows a class listing.
type ListClassesParams struct {
	GymID    string
	From     *time.Time
	To       *time.Time
	Statuses []string
}

// OverlapWarning flags two stored classes that share a resource in overlapping windows.
type OverlapWarning struct {
	ClassID     string
	WithClassID string
	Type        string
	ResourceID  string
}

// ClassListing is a page of classes plus overlaps found among them.
type ClassListing struct {
	Classes  []Class
	Warnings []OverlapWarning
}

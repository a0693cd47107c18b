package scheduler

import "time"

// Booking represents a class occupying a location and, optionally, a coach.
type Booking struct {
	ID         string
	Title      string
	LocationID string
	CoachID    *string
	Start      time.Time
	End        time.Time
}

// ConflictType describes the resource that is double-booked.
type ConflictType string

const (
	// ConflictTypeLocation indicates a location is double-booked.
	ConflictTypeLocation ConflictType = "location"
	// ConflictTypeCoach indicates a coach is double-booked.
	ConflictTypeCoach ConflictType = "coach"
)

// Conflict details an overlapping booking relation that callers can present to users.
type Conflict struct {
	BookingID     string
	WithBookingID string
	WithTitle     string
	Type          ConflictType
	ResourceID    string
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DetectConflicts identifies conflicts for the candidate booking against existing ones.
// Entries sharing the candidate's ID are ignored.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	for _, other := range existing {
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, other.Start, other.End) {
			continue
		}
		if candidate.LocationID != "" && candidate.LocationID == other.LocationID {
			conflicts = append(conflicts, Conflict{
				BookingID:     candidate.ID,
				WithBookingID: other.ID,
				WithTitle:     other.Title,
				Type:          ConflictTypeLocation,
				ResourceID:    candidate.LocationID,
			})
		}
		if candidate.CoachID != nil && other.CoachID != nil && *candidate.CoachID == *other.CoachID {
			conflicts = append(conflicts, Conflict{
				BookingID:     candidate.ID,
				WithBookingID: other.ID,
				WithTitle:     other.Title,
				Type:          ConflictTypeCoach,
				ResourceID:    *candidate.CoachID,
			})
		}
	}
	return conflicts
}

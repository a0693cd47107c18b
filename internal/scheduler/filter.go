package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/example/class-scheduler/internal/recurrence"
)

// Availability is the answer of a single resource availability check.
type Availability struct {
	Available bool
	Conflicts []Booking
}

// AvailabilityChecker answers whether a location or coach is free for a window.
type AvailabilityChecker interface {
	CheckLocation(ctx context.Context, locationID string, start, end time.Time, excludeClassID string) (Availability, error)
	CheckCoach(ctx context.Context, coachID string, start, end time.Time) (Availability, error)
}

// Rejection describes why a candidate window was not accepted.
type Rejection struct {
	Date   time.Time
	Reason string
}

// FilterResult partitions candidates; both slices keep generation order.
type FilterResult struct {
	Valid     []recurrence.Occurrence
	Conflicts []Rejection
}

const (
	reasonLocationBusy   = "location busy: "
	reasonCoachBusy      = "coach busy: "
	reasonLocationFailed = "location check failed: "
	reasonCoachFailed    = "coach check failed: "
)

// Filter checks every candidate in order against the current persisted state.
//
// Location is checked first; a busy location rejects the candidate without querying
// the coach. Candidates are not reserved while the batch is filtered, so two
// candidates of the same batch that overlap each other are both accepted.
func Filter(ctx context.Context, checker AvailabilityChecker, candidates []recurrence.Occurrence, locationID string, coachID *string) FilterResult {
	result := FilterResult{
		Valid:     make([]recurrence.Occurrence, 0, len(candidates)),
		Conflicts: make([]Rejection, 0),
	}
	for _, candidate := range candidates {
		if reason, ok := Check(ctx, checker, candidate.Start, candidate.End, locationID, coachID, ""); !ok {
			result.Conflicts = append(result.Conflicts, Rejection{Date: candidate.Start, Reason: reason})
			continue
		}
		result.Valid = append(result.Valid, candidate)
	}
	return result
}

// Check runs the location then coach stages for one window. It returns the rejection
// reason and false when the window cannot be booked.
func Check(ctx context.Context, checker AvailabilityChecker, start, end time.Time, locationID string, coachID *string, excludeClassID string) (string, bool) {
	if reason, ok := CheckLocation(ctx, checker, start, end, locationID, excludeClassID); !ok {
		return reason, false
	}

	if coachID == nil || *coachID == "" {
		return "", true
	}

	coach, err := checker.CheckCoach(ctx, *coachID, start, end)
	if err != nil {
		return reasonCoachFailed + err.Error(), false
	}
	if !coach.Available {
		return reasonCoachBusy + joinTitles(coach.Conflicts), false
	}
	return "", true
}

// CheckLocation runs only the location stage, excluding the given class from the conflict set.
func CheckLocation(ctx context.Context, checker AvailabilityChecker, start, end time.Time, locationID, excludeClassID string) (string, bool) {
	loc, err := checker.CheckLocation(ctx, locationID, start, end, excludeClassID)
	if err != nil {
		return reasonLocationFailed + err.Error(), false
	}
	if !loc.Available {
		return reasonLocationBusy + joinTitles(loc.Conflicts), false
	}
	return "", true
}

func joinTitles(bookings []Booking) string {
	titles := make([]string, 0, len(bookings))
	for _, b := range bookings {
		titles = append(titles, b.Title)
	}
	return strings.Join(titles, ", ")
}

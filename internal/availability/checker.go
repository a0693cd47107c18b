// Package availability answers whether a location or coach is free for a time window
// by querying persisted classes.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/scheduler"
)

// OverlapFinder is the slice of the class repository the checker needs.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, query persistence.OverlapQuery) ([]persistence.Class, error)
}

// Checker implements scheduler.AvailabilityChecker.
type Checker struct {
	classes OverlapFinder
}

var _ scheduler.AvailabilityChecker = (*Checker)(nil)

// NewChecker wires a checker to the class store.
func NewChecker(classes OverlapFinder) *Checker {
	return &Checker{classes: classes}
}

// CheckLocation reports whether the location is free in [start, end), ignoring excludeClassID.
func (c *Checker) CheckLocation(ctx context.Context, locationID string, start, end time.Time, excludeClassID string) (scheduler.Availability, error) {
	return c.check(ctx, persistence.OverlapQuery{
		LocationID: locationID,
		Start:      start,
		End:        end,
		ExcludeID:  excludeClassID,
	})
}

// CheckCoach reports whether the coach is free in [start, end).
func (c *Checker) CheckCoach(ctx context.Context, coachID string, start, end time.Time) (scheduler.Availability, error) {
	return c.check(ctx, persistence.OverlapQuery{
		CoachID: coachID,
		Start:   start,
		End:     end,
	})
}

func (c *Checker) check(ctx context.Context, query persistence.OverlapQuery) (scheduler.Availability, error) {
	if c == nil || c.classes == nil {
		return scheduler.Availability{}, fmt.Errorf("availability: class store not configured")
	}
	overlapping, err := c.classes.FindOverlapping(ctx, query)
	if err != nil {
		return scheduler.Availability{}, fmt.Errorf("availability: %w", err)
	}
	if len(overlapping) == 0 {
		return scheduler.Availability{Available: true}, nil
	}

	conflicts := make([]scheduler.Booking, 0, len(overlapping))
	for _, class := range overlapping {
		conflicts = append(conflicts, scheduler.Booking{
			ID:         class.ID,
			Title:      class.Title,
			LocationID: class.LocationID,
			CoachID:    class.CoachID,
			Start:      class.Start,
			End:        class.End,
		})
	}
	return scheduler.Availability{Available: false, Conflicts: conflicts}, nil
}

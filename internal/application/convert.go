package application

import (
	"errors"

	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/scheduler"
)

func toSeries(s persistence.Series) Series {
	return Series{
		ID:             s.ID,
		GymID:          s.GymID,
		Title:          s.Title,
		Description:    s.Description,
		ClassTypeID:    s.ClassTypeID,
		LocationID:     s.LocationID,
		CoachID:        s.CoachID,
		Capacity:       s.Capacity,
		RecurrenceType: RecurrenceType(s.RecurrenceType),
		RecurrenceDays: append([]int(nil), s.RecurrenceDays...),
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toClass(c persistence.Class) Class {
	return Class{
		ID:          c.ID,
		GymID:       c.GymID,
		Title:       c.Title,
		Description: c.Description,
		ClassTypeID: c.ClassTypeID,
		LocationID:  c.LocationID,
		CoachID:     c.CoachID,
		Capacity:    c.Capacity,
		Start:       c.Start,
		End:         c.End,
		Status:      c.Status,
		IsRecurring: c.IsRecurring,
		SeriesID:    c.SeriesID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toClasses(records []persistence.Class) []Class {
	classes := make([]Class, 0, len(records))
	for _, record := range records {
		classes = append(classes, toClass(record))
	}
	return classes
}

func toPersistenceClass(c Class) persistence.Class {
	return persistence.Class{
		ID:          c.ID,
		GymID:       c.GymID,
		Title:       c.Title,
		Description: c.Description,
		ClassTypeID: c.ClassTypeID,
		LocationID:  c.LocationID,
		CoachID:     c.CoachID,
		Capacity:    c.Capacity,
		Start:       c.Start,
		End:         c.End,
		Status:      c.Status,
		IsRecurring: c.IsRecurring,
		SeriesID:    c.SeriesID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toBooking(c Class) scheduler.Booking {
	return scheduler.Booking{
		ID:         c.ID,
		Title:      c.Title,
		LocationID: c.LocationID,
		CoachID:    c.CoachID,
		Start:      c.Start,
		End:        c.End,
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

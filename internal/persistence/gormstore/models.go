package gormstore

import (
	"time"

	"github.com/example/class-scheduler/internal/persistence"
)

type seriesRecord struct {
	ID             string    `gorm:"primaryKey;size:64"`
	GymID          string    `gorm:"size:64;not null;index:idx_series_gym"`
	Title          string    `gorm:"not null"`
	Description    *string   `gorm:"type:text"`
	ClassTypeID    string    `gorm:"size:64;not null"`
	LocationID     string    `gorm:"size:64;not null"`
	CoachID        *string   `gorm:"size:64"`
	Capacity       int       `gorm:"not null;check:capacity > 0"`
	RecurrenceType string    `gorm:"size:16;not null"`
	RecurrenceDays int64     `gorm:"not null;default:0"`
	StartDate      time.Time `gorm:"type:date;not null"`
	EndDate        time.Time `gorm:"type:date;not null"`
	StartTime      string    `gorm:"size:5;not null"`
	EndTime        string    `gorm:"size:5;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (seriesRecord) TableName() string { return "series" }

type classRecord struct {
	ID          string    `gorm:"primaryKey;size:64"`
	GymID       string    `gorm:"size:64;not null;index:idx_classes_gym_start,priority:1"`
	Title       string    `gorm:"not null"`
	Description *string   `gorm:"type:text"`
	ClassTypeID string    `gorm:"size:64;not null"`
	LocationID  string    `gorm:"size:64;not null;index:idx_classes_location_start,priority:1"`
	CoachID     *string   `gorm:"size:64;index:idx_classes_coach_start,priority:1"`
	Capacity    int       `gorm:"not null;check:capacity > 0"`
	StartTime   time.Time `gorm:"not null;index:idx_classes_location_start,priority:2;index:idx_classes_coach_start,priority:2;index:idx_classes_gym_start,priority:2"`
	EndTime     time.Time `gorm:"not null"`
	Status      string    `gorm:"size:16;not null;default:scheduled"`
	IsRecurring bool      `gorm:"not null;default:false"`
	SeriesID    *string   `gorm:"size:64;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (classRecord) TableName() string { return "classes" }

func toSeriesRecord(s persistence.Series) seriesRecord {
	return seriesRecord{
		ID:             s.ID,
		GymID:          s.GymID,
		Title:          s.Title,
		Description:    s.Description,
		ClassTypeID:    s.ClassTypeID,
		LocationID:     s.LocationID,
		CoachID:        s.CoachID,
		Capacity:       s.Capacity,
		RecurrenceType: s.RecurrenceType,
		RecurrenceDays: encodeWeekdays(s.RecurrenceDays),
		StartDate:      s.StartDate.UTC(),
		EndDate:        s.EndDate.UTC(),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		CreatedAt:      s.CreatedAt.UTC(),
		UpdatedAt:      s.UpdatedAt.UTC(),
	}
}

func (r seriesRecord) toPersistence() persistence.Series {
	return persistence.Series{
		ID:             r.ID,
		GymID:          r.GymID,
		Title:          r.Title,
		Description:    r.Description,
		ClassTypeID:    r.ClassTypeID,
		LocationID:     r.LocationID,
		CoachID:        r.CoachID,
		Capacity:       r.Capacity,
		RecurrenceType: r.RecurrenceType,
		RecurrenceDays: decodeWeekdays(r.RecurrenceDays),
		StartDate:      dateOnly(r.StartDate),
		EndDate:        dateOnly(r.EndDate),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func toClassRecord(c persistence.Class) classRecord {
	status := c.Status
	if status == "" {
		status = persistence.StatusScheduled
	}
	return classRecord{
		ID:          c.ID,
		GymID:       c.GymID,
		Title:       c.Title,
		Description: c.Description,
		ClassTypeID: c.ClassTypeID,
		LocationID:  c.LocationID,
		CoachID:     c.CoachID,
		Capacity:    c.Capacity,
		StartTime:   c.Start.UTC(),
		EndTime:     c.End.UTC(),
		Status:      status,
		IsRecurring: c.IsRecurring,
		SeriesID:    c.SeriesID,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (r classRecord) toPersistence() persistence.Class {
	return persistence.Class{
		ID:          r.ID,
		GymID:       r.GymID,
		Title:       r.Title,
		Description: r.Description,
		ClassTypeID: r.ClassTypeID,
		LocationID:  r.LocationID,
		CoachID:     r.CoachID,
		Capacity:    r.Capacity,
		Start:       r.StartTime.UTC(),
		End:         r.EndTime.UTC(),
		Status:      r.Status,
		IsRecurring: r.IsRecurring,
		SeriesID:    r.SeriesID,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func encodeWeekdays(days []int) int64 {
	var mask int64
	for _, day := range days {
		if day >= 1 && day <= 7 {
			mask |= 1 << uint(day)
		}
	}
	return mask
}

func decodeWeekdays(mask int64) []int {
	var days []int
	for day := 1; day <= 7; day++ {
		if mask&(1<<uint(day)) != 0 {
			days = append(days, day)
		}
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

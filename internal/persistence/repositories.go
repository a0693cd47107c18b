package persistence

import (
	"context"
	"time"
)

// SeriesRepository stores recurrence definitions.
type SeriesRepository interface {
	CreateSeries(ctx context.Context, series Series) error
	GetSeries(ctx context.Context, id string) (Series, error)
	ListSeries(ctx context.Context, gymID string) ([]Series, error)
	DeleteSeries(ctx context.Context, id string) error
}

// ClassRepository stores concrete class occurrences.
type ClassRepository interface {
	CreateClass(ctx context.Context, class Class) error
	// CreateClasses inserts every class in a single write; either all rows land or none do.
	CreateClasses(ctx context.Context, classes []Class) error
	GetClass(ctx context.Context, id string) (Class, error)
	UpdateClass(ctx context.Context, class Class) error
	ListClasses(ctx context.Context, filter ClassFilter) ([]Class, error)
	// DeleteClasses removes every class matching the filter and reports how many were removed.
	DeleteClasses(ctx context.Context, filter ClassFilter) (int64, error)
	// FindOverlapping returns non-cancelled classes whose window overlaps the query window.
	FindOverlapping(ctx context.Context, query OverlapQuery) ([]Class, error)
	// CompleteEndedClasses marks scheduled classes that ended before the reference as completed.
	CompleteEndedClasses(ctx context.Context, reference time.Time) (int64, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	SeriesRepository
	ClassRepository
	Close() error
}

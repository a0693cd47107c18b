package application

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/scheduler"
)

type seriesRepoStub struct {
	mu        sync.Mutex
	series    map[string]persistence.Series
	createErr error
}

func newSeriesRepoStub(existing ...persistence.Series) *seriesRepoStub {
	stub := &seriesRepoStub{series: make(map[string]persistence.Series)}
	for _, s := range existing {
		stub.series[s.ID] = s
	}
	return stub
}

func (s *seriesRepoStub) CreateSeries(ctx context.Context, series persistence.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.series[series.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.series[series.ID] = series
	return nil
}

func (s *seriesRepoStub) GetSeries(ctx context.Context, id string) (persistence.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.series[id]
	if !ok {
		return persistence.Series{}, persistence.ErrNotFound
	}
	return series, nil
}

func (s *seriesRepoStub) ListSeries(ctx context.Context, gymID string) ([]persistence.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persistence.Series
	for _, series := range s.series {
		if series.GymID == gymID {
			out = append(out, series)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *seriesRepoStub) DeleteSeries(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.series, id)
	return nil
}

type classRepoStub struct {
	mu           sync.Mutex
	classes      map[string]persistence.Class
	bulkInserts  int
	createErr    error
	completedRef time.Time
}

func newClassRepoStub(existing ...persistence.Class) *classRepoStub {
	stub := &classRepoStub{classes: make(map[string]persistence.Class)}
	for _, c := range existing {
		stub.classes[c.ID] = c
	}
	return stub
}

func (s *classRepoStub) CreateClass(ctx context.Context, class persistence.Class) error {
	return s.CreateClasses(ctx, []persistence.Class{class})
}

func (s *classRepoStub) CreateClasses(ctx context.Context, classes []persistence.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.bulkInserts++
	for _, class := range classes {
		s.classes[class.ID] = class
	}
	return nil
}

func (s *classRepoStub) GetClass(ctx context.Context, id string) (persistence.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[id]
	if !ok {
		return persistence.Class{}, persistence.ErrNotFound
	}
	return class, nil
}

func (s *classRepoStub) UpdateClass(ctx context.Context, class persistence.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[class.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.classes[class.ID] = class
	return nil
}

func (s *classRepoStub) ListClasses(ctx context.Context, filter persistence.ClassFilter) ([]persistence.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persistence.Class
	for _, class := range s.classes {
		if matchesFilter(class, filter) {
			out = append(out, class)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *classRepoStub) DeleteClasses(ctx context.Context, filter persistence.ClassFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, class := range s.classes {
		if matchesFilter(class, filter) {
			delete(s.classes, id)
			removed++
		}
	}
	return removed, nil
}

func (s *classRepoStub) FindOverlapping(ctx context.Context, query persistence.OverlapQuery) ([]persistence.Class, error) {
	return nil, nil
}

func (s *classRepoStub) CompleteEndedClasses(ctx context.Context, reference time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedRef = reference
	var completed int64
	for id, class := range s.classes {
		if class.Status == persistence.StatusScheduled && class.End.Before(reference) {
			class.Status = persistence.StatusCompleted
			s.classes[id] = class
			completed++
		}
	}
	return completed, nil
}

func (s *classRepoStub) all() []persistence.Class {
	out, _ := s.ListClasses(context.Background(), persistence.ClassFilter{})
	return out
}

func matchesFilter(class persistence.Class, filter persistence.ClassFilter) bool {
	if filter.GymID != "" && class.GymID != filter.GymID {
		return false
	}
	if filter.SeriesID != "" && (class.SeriesID == nil || *class.SeriesID != filter.SeriesID) {
		return false
	}
	if filter.StartsFrom != nil && class.Start.Before(*filter.StartsFrom) {
		return false
	}
	if filter.StartsBefore != nil && !class.Start.Before(*filter.StartsBefore) {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, class.Status) {
		return false
	}
	return true
}

type locationCall struct {
	locationID string
	start      time.Time
	exclude    string
}

// checkerStub reports a resource busy when the window start is listed for it.
type checkerStub struct {
	mu            sync.Mutex
	busyLocation  map[time.Time][]scheduler.Booking
	busyCoach     map[time.Time][]scheduler.Booking
	locationErr   error
	locationCalls []locationCall
	coachCalls    []time.Time
}

func (c *checkerStub) CheckLocation(ctx context.Context, locationID string, start, end time.Time, excludeClassID string) (scheduler.Availability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locationCalls = append(c.locationCalls, locationCall{locationID: locationID, start: start, exclude: excludeClassID})
	if c.locationErr != nil {
		return scheduler.Availability{}, c.locationErr
	}
	if busy := c.busyLocation[start]; len(busy) > 0 {
		return scheduler.Availability{Conflicts: busy}, nil
	}
	return scheduler.Availability{Available: true}, nil
}

func (c *checkerStub) CheckCoach(ctx context.Context, coachID string, start, end time.Time) (scheduler.Availability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coachCalls = append(c.coachCalls, start)
	if busy := c.busyCoach[start]; len(busy) > 0 {
		return scheduler.Availability{Conflicts: busy}, nil
	}
	return scheduler.Availability{Available: true}, nil
}

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

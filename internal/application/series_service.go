package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/recurrence"
	"github.com/example/class-scheduler/internal/scheduler"
)

// SeriesService manages recurring series: creation, deletion and per-instance edits.
type SeriesService struct {
	series      persistence.SeriesRepository
	classes     persistence.ClassRepository
	checker     scheduler.AvailabilityChecker
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSeriesService wires dependencies for series operations.
func NewSeriesService(series persistence.SeriesRepository, classes persistence.ClassRepository, checker scheduler.AvailabilityChecker, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *SeriesService {
	return NewSeriesServiceWithLogger(series, classes, checker, engine, idGenerator, now, nil)
}

// NewSeriesServiceWithLogger constructs a series service with a specified logger.
func NewSeriesServiceWithLogger(series persistence.SeriesRepository, classes persistence.ClassRepository, checker scheduler.AvailabilityChecker, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SeriesService {
	if engine == nil {
		engine = recurrence.NewEngine(time.UTC)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SeriesService{
		series:      series,
		classes:     classes,
		checker:     checker,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SeriesService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SeriesService", operation, attrs...)
}

func (s *SeriesService) ready() error {
	if s == nil {
		return fmt.Errorf("SeriesService is nil")
	}
	if s.series == nil || s.classes == nil {
		return fmt.Errorf("series repositories not configured")
	}
	if s.checker == nil {
		return fmt.Errorf("availability checker not configured")
	}
	return nil
}

// CreateSeries stores the series, expands it into occurrences and books every occurrence
// whose location and coach are free. Rejected occurrences are reported in the result; a
// series with no bookable occurrence is still created.
func (s *SeriesService) CreateSeries(ctx context.Context, pattern RecurrencePattern) (result SeriesCreationResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateSeries",
		"gym_id", pattern.GymID,
		"recurrence_type", string(pattern.RecurrenceType),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create series", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"series_id", result.SeriesID,
			"classes_created", result.ClassesCreated,
			"conflicts", len(result.Conflicts),
		).InfoContext(ctx, "series created")
	}()

	if vErr := validatePattern(pattern); vErr.HasErrors() {
		err = vErr
		return
	}

	candidates, err := s.engine.Generate(recurrence.Pattern{
		Frequency:      recurrence.Frequency(pattern.RecurrenceType),
		Weekdays:       pattern.RecurrenceDays,
		StartDate:      pattern.StartDate,
		EndDate:        pattern.EndDate,
		StartTime:      pattern.StartTime,
		EndTime:        pattern.EndTime,
		MaxOccurrences: pattern.MaxOccurrences,
	})
	if err != nil {
		err = fmt.Errorf("generate occurrences: %w", err)
		return
	}

	createdAt := s.now()
	series := persistence.Series{
		ID:             s.idGenerator(),
		GymID:          pattern.GymID,
		Title:          strings.TrimSpace(pattern.Title),
		Description:    pattern.Description,
		ClassTypeID:    pattern.ClassTypeID,
		LocationID:     pattern.LocationID,
		CoachID:        pattern.CoachID,
		Capacity:       pattern.Capacity,
		RecurrenceType: string(pattern.RecurrenceType),
		RecurrenceDays: pattern.RecurrenceDays,
		StartDate:      pattern.StartDate,
		EndDate:        resolvedEndDate(pattern),
		StartTime:      pattern.StartTime,
		EndTime:        pattern.EndTime,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if err = s.series.CreateSeries(ctx, series); err != nil {
		err = mapRepoError(err)
		return
	}
	result.SeriesID = series.ID

	filtered := scheduler.Filter(ctx, s.checker, candidates, pattern.LocationID, pattern.CoachID)
	for _, rejection := range filtered.Conflicts {
		result.Conflicts = append(result.Conflicts, ConflictRecord{Date: rejection.Date, Reason: rejection.Reason})
	}
	if len(filtered.Valid) == 0 {
		return
	}

	seriesID := series.ID
	classes := make([]persistence.Class, 0, len(filtered.Valid))
	for _, occ := range filtered.Valid {
		classes = append(classes, persistence.Class{
			ID:          s.idGenerator(),
			GymID:       series.GymID,
			Title:       series.Title,
			Description: series.Description,
			ClassTypeID: series.ClassTypeID,
			LocationID:  series.LocationID,
			CoachID:     series.CoachID,
			Capacity:    series.Capacity,
			Start:       occ.Start,
			End:         occ.End,
			Status:      StatusScheduled,
			IsRecurring: true,
			SeriesID:    &seriesID,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		})
	}
	if err = s.classes.CreateClasses(ctx, classes); err != nil {
		err = fmt.Errorf("store occurrences of series %s: %w", series.ID, mapRepoError(err))
		return
	}
	result.ClassesCreated = len(classes)
	return
}

// DeleteSeries removes a series' occurrences. DeleteAll also removes the series row;
// DeleteFuture only removes occurrences starting at or after now and keeps the rest.
func (s *SeriesService) DeleteSeries(ctx context.Context, seriesID string, option DeleteOption) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteSeries", "series_id", seriesID, "scope", string(option))
	var removed int64
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete series", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("classes_removed", removed).InfoContext(ctx, "series deleted")
	}()

	if option != DeleteFuture && option != DeleteAll {
		vErr := &ValidationError{}
		vErr.add("scope", "must be one of: future, all")
		err = vErr
		return
	}

	if _, err = s.series.GetSeries(ctx, seriesID); err != nil {
		err = mapRepoError(err)
		return
	}

	filter := persistence.ClassFilter{SeriesID: seriesID}
	if option == DeleteFuture {
		now := s.now()
		filter.StartsFrom = &now
	}
	if removed, err = s.classes.DeleteClasses(ctx, filter); err != nil {
		err = mapRepoError(err)
		return
	}

	if option == DeleteAll {
		if err = s.series.DeleteSeries(ctx, seriesID); err != nil {
			err = mapRepoError(err)
			return
		}
	}
	return
}

// UpdateClassInstance applies a partial update to one class. When the update carries a
// new start, end and location together, the location is checked first, excluding the
// class itself. The coach is not rechecked. breakFromSeries detaches the class from
// its series.
func (s *SeriesService) UpdateClassInstance(ctx context.Context, classID string, updates ClassUpdate, breakFromSeries bool) (result UpdateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateClassInstance", "class_id", classID, "break_from_series", breakFromSeries)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update class", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !result.Success {
			logger.With("reason", result.Error).InfoContext(ctx, "class update rejected")
			return
		}
		logger.InfoContext(ctx, "class updated")
	}()

	record, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	existing := toClass(record)

	if vErr := validateUpdate(existing, updates); vErr.HasErrors() {
		err = vErr
		return
	}

	if updates.Start != nil && updates.End != nil && updates.LocationID != nil {
		if reason, ok := scheduler.CheckLocation(ctx, s.checker, *updates.Start, *updates.End, *updates.LocationID, classID); !ok {
			result.Error = reason
			return
		}
	}

	updated := applyUpdate(existing, updates)
	if breakFromSeries {
		updated.SeriesID = nil
		updated.IsRecurring = false
	}
	updated.UpdatedAt = s.now()

	if err = s.classes.UpdateClass(ctx, toPersistenceClass(updated)); err != nil {
		err = mapRepoError(err)
		return
	}
	result.Success = true
	return
}

// GetSeries returns a series and the classes still linked to it.
func (s *SeriesService) GetSeries(ctx context.Context, seriesID string) (SeriesDetail, error) {
	if err := s.ready(); err != nil {
		return SeriesDetail{}, err
	}

	series, err := s.series.GetSeries(ctx, seriesID)
	if err != nil {
		return SeriesDetail{}, mapRepoError(err)
	}
	classes, err := s.classes.ListClasses(ctx, persistence.ClassFilter{SeriesID: seriesID})
	if err != nil {
		return SeriesDetail{}, mapRepoError(err)
	}
	return SeriesDetail{Series: toSeries(series), Classes: toClasses(classes)}, nil
}

// ListSeries returns every series of a gym.
func (s *SeriesService) ListSeries(ctx context.Context, gymID string) ([]Series, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(gymID) == "" {
		vErr := &ValidationError{}
		vErr.add("gym_id", "gym_id is required")
		return nil, vErr
	}

	records, err := s.series.ListSeries(ctx, gymID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	series := make([]Series, 0, len(records))
	for _, record := range records {
		series = append(series, toSeries(record))
	}
	return series, nil
}

func resolvedEndDate(p RecurrencePattern) time.Time {
	if p.EndDate != nil {
		return *p.EndDate
	}
	return p.StartDate.AddDate(0, recurrence.HorizonMonths, 0)
}

func applyUpdate(c Class, u ClassUpdate) Class {
	if u.Title != nil {
		c.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		c.Description = u.Description
	}
	if u.ClassTypeID != nil {
		c.ClassTypeID = *u.ClassTypeID
	}
	if u.LocationID != nil {
		c.LocationID = *u.LocationID
	}
	if u.CoachID != nil {
		c.CoachID = u.CoachID
	}
	if u.Capacity != nil {
		c.Capacity = *u.Capacity
	}
	if u.Start != nil {
		c.Start = *u.Start
	}
	if u.End != nil {
		c.End = *u.End
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	return c
}

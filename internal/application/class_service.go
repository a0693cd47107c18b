package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/scheduler"
)

// ClassService books and lists standalone classes.
type ClassService struct {
	classes     persistence.ClassRepository
	checker     scheduler.AvailabilityChecker
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClassService wires dependencies for class operations.
func NewClassService(classes persistence.ClassRepository, checker scheduler.AvailabilityChecker, idGenerator func() string, now func() time.Time) *ClassService {
	return NewClassServiceWithLogger(classes, checker, idGenerator, now, nil)
}

// NewClassServiceWithLogger constructs a class service with a specified logger.
func NewClassServiceWithLogger(classes persistence.ClassRepository, checker scheduler.AvailabilityChecker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClassService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClassService{
		classes:     classes,
		checker:     checker,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ClassService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClassService", operation, attrs...)
}

func (s *ClassService) ready() error {
	if s == nil {
		return fmt.Errorf("ClassService is nil")
	}
	if s.classes == nil {
		return fmt.Errorf("class repository not configured")
	}
	return nil
}

// CreateSingleClass checks the location and then the coach for one window and books
// the class only when both are free. A busy resource is reported in the result.
func (s *ClassService) CreateSingleClass(ctx context.Context, params SingleClassParams) (result SingleClassResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.checker == nil {
		err = fmt.Errorf("availability checker not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSingleClass",
		"gym_id", params.GymID,
		"location_id", params.LocationID,
	)
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "failed to create class", "error", err, "error_kind", ErrorKind(err))
		case !result.Success:
			logger.With("reason", result.Error).InfoContext(ctx, "class rejected")
		default:
			logger.With("class_id", result.ClassID).InfoContext(ctx, "class created")
		}
	}()

	if vErr := validateSingleClass(params); vErr.HasErrors() {
		err = vErr
		return
	}

	if reason, ok := scheduler.Check(ctx, s.checker, params.Start, params.End, params.LocationID, params.CoachID, ""); !ok {
		result.Error = reason
		return
	}

	createdAt := s.now()
	class := persistence.Class{
		ID:          s.idGenerator(),
		GymID:       params.GymID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		ClassTypeID: params.ClassTypeID,
		LocationID:  params.LocationID,
		CoachID:     params.CoachID,
		Capacity:    params.Capacity,
		Start:       params.Start,
		End:         params.End,
		Status:      StatusScheduled,
		IsRecurring: false,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err = s.classes.CreateClass(ctx, class); err != nil {
		err = mapRepoError(err)
		return
	}

	result.Success = true
	result.ClassID = class.ID
	return
}

// GetClass returns one class.
func (s *ClassService) GetClass(ctx context.Context, classID string) (Class, error) {
	if err := s.ready(); err != nil {
		return Class{}, err
	}
	record, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return Class{}, mapRepoError(err)
	}
	return toClass(record), nil
}

// ListClasses returns a gym's classes ordered by start time, along with overlaps that
// exist among the returned non-cancelled classes.
func (s *ClassService) ListClasses(ctx context.Context, params ListClassesParams) (ClassListing, error) {
	if err := s.ready(); err != nil {
		return ClassListing{}, err
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.GymID) == "" {
		vErr.add("gym_id", "gym_id is required")
	}
	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		vErr.add("to", "to must be after from")
	}
	if vErr.HasErrors() {
		return ClassListing{}, vErr
	}

	records, err := s.classes.ListClasses(ctx, persistence.ClassFilter{
		GymID:        params.GymID,
		StartsFrom:   params.From,
		StartsBefore: params.To,
		Statuses:     params.Statuses,
	})
	if err != nil {
		return ClassListing{}, mapRepoError(err)
	}

	classes := toClasses(records)
	sort.SliceStable(classes, func(i, j int) bool {
		if classes[i].Start.Equal(classes[j].Start) {
			return classes[i].ID < classes[j].ID
		}
		return classes[i].Start.Before(classes[j].Start)
	})

	return ClassListing{Classes: classes, Warnings: detectOverlaps(classes)}, nil
}

// CompletePastClasses marks scheduled classes that have already ended as completed.
func (s *ClassService) CompletePastClasses(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	completed, err := s.classes.CompleteEndedClasses(ctx, s.now())
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "CompletePastClasses").ErrorContext(ctx, "failed to complete classes", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	if completed > 0 {
		s.loggerWith(ctx, "CompletePastClasses").InfoContext(ctx, "classes completed", "count", completed)
	}
	return completed, nil
}

// detectOverlaps reports each overlapping pair once. Classes created in the same series
// batch are not checked against each other at booking time, so this is where such
// overlaps surface.
func detectOverlaps(classes []Class) []OverlapWarning {
	active := make([]scheduler.Booking, 0, len(classes))
	for _, class := range classes {
		if class.Status == StatusCancelled {
			continue
		}
		active = append(active, toBooking(class))
	}
	if len(active) <= 1 {
		return nil
	}

	var warnings []OverlapWarning
	for i, candidate := range active[:len(active)-1] {
		for _, conflict := range scheduler.DetectConflicts(active[i+1:], candidate) {
			warnings = append(warnings, OverlapWarning{
				ClassID:     conflict.BookingID,
				WithClassID: conflict.WithBookingID,
				Type:        string(conflict.Type),
				ResourceID:  conflict.ResourceID,
			})
		}
	}
	return warnings
}

package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/recurrence"
	"github.com/example/class-scheduler/internal/scheduler"
	"github.com/example/class-scheduler/internal/testfixtures"
)

type seriesHarness struct {
	series  *seriesRepoStub
	classes *classRepoStub
	checker *checkerStub
	clock   *testfixtures.Clock
	svc     *SeriesService
}

func newSeriesHarness(classes ...persistence.Class) *seriesHarness {
	h := &seriesHarness{
		series:  newSeriesRepoStub(),
		classes: newClassRepoStub(classes...),
		checker: &checkerStub{},
		clock:   testfixtures.NewClock(time.Time{}),
	}
	h.svc = NewSeriesService(h.series, h.classes, h.checker, recurrence.NewEngine(time.UTC), testfixtures.NewIDGenerator("id").NextFunc(), h.clock.NowFunc())
	return h
}

func weeklyPattern() RecurrencePattern {
	return RecurrencePattern{
		GymID:          "gym-1",
		Title:          "Morning Flow",
		ClassTypeID:    "yoga",
		LocationID:     "room-a",
		Capacity:       12,
		RecurrenceType: RecurrenceWeekly,
		RecurrenceDays: []int{1, 3, 5},
		StartDate:      date(time.January, 1),
		EndDate:        ptr(date(time.January, 14)),
		StartTime:      "07:00",
		EndTime:        "08:00",
	}
}

func TestSeriesService_CreateSeries_BooksEveryFreeOccurrence(t *testing.T) {
	t.Parallel()

	h := newSeriesHarness()
	result, err := h.svc.CreateSeries(context.Background(), weeklyPattern())
	if err != nil {
		t.Fatalf("CreateSeries returned error: %v", err)
	}

	if result.SeriesID != "id-1" || result.ClassesCreated != 6 || len(result.Conflicts) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if h.classes.bulkInserts != 1 {
		t.Fatalf("expected a single bulk insert, got %d", h.classes.bulkInserts)
	}

	wantDays := []int{1, 3, 5, 8, 10, 12}
	stored := h.classes.all()
	if len(stored) != len(wantDays) {
		t.Fatalf("expected %d stored classes, got %d", len(wantDays), len(stored))
	}
	for i, class := range stored {
		if !class.Start.Equal(at(time.January, wantDays[i], 7, 0)) || !class.End.Equal(at(time.January, wantDays[i], 8, 0)) {
			t.Errorf("class %d window = %v-%v", i, class.Start, class.End)
		}
		if class.SeriesID == nil || *class.SeriesID != "id-1" || !class.IsRecurring {
			t.Errorf("class %d not linked to series: %+v", i, class)
		}
		if class.Status != StatusScheduled || class.Capacity != 12 || class.Title != "Morning Flow" {
			t.Errorf("class %d metadata not copied: %+v", i, class)
		}
	}

	series, err := h.series.GetSeries(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("series not stored: %v", err)
	}
	if !series.EndDate.Equal(date(time.January, 14)) {
		t.Fatalf("expected explicit end date to be stored, got %v", series.EndDate)
	}
}

func TestSeriesService_CreateSeries_ReportsBusyLocationWithoutCheckingCoach(t *testing.T) {
	t.Parallel()

	h := newSeriesHarness()
	busy := at(time.January, 3, 7, 0)
	h.checker.busyLocation = map[time.Time][]scheduler.Booking{busy: {{Title: "Spin"}, {Title: "Boxing"}}}

	pattern := weeklyPattern()
	pattern.CoachID = ptr("coach-1")

	result, err := h.svc.CreateSeries(context.Background(), pattern)
	if err != nil {
		t.Fatalf("CreateSeries returned error: %v", err)
	}

	if result.ClassesCreated != 5 {
		t.Fatalf("expected 5 classes, got %d", result.ClassesCreated)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", result.Conflicts)
	}
	conflict := result.Conflicts[0]
	if !conflict.Date.Equal(busy) || conflict.Reason != "location busy: Spin, Boxing" {
		t.Fatalf("unexpected conflict %+v", conflict)
	}

	for _, class := range h.classes.all() {
		if class.Start.Equal(busy) {
			t.Fatalf("conflicting occurrence was stored")
		}
	}
	if len(h.checker.coachCalls) != 5 {
		t.Fatalf("expected coach checks only for free locations, got %d", len(h.checker.coachCalls))
	}
	for _, start := range h.checker.coachCalls {
		if start.Equal(busy) {
			t.Fatalf("coach was checked for an occurrence with a busy location")
		}
	}
}

func TestSeriesService_CreateSeries_KeepsSeriesWhenNothingIsBookable(t *testing.T) {
	t.Parallel()

	h := newSeriesHarness()
	h.checker.locationErr = errors.New("connection reset")

	result, err := h.svc.CreateSeries(context.Background(), weeklyPattern())
	if err != nil {
		t.Fatalf("availability failures must be reported, got error %v", err)
	}
	if result.ClassesCreated != 0 || len(result.Conflicts) != 6 {
		t.Fatalf("unexpected result %+v", result)
	}
	for _, conflict := range result.Conflicts {
		if conflict.Reason != "location check failed: connection reset" {
			t.Fatalf("unexpected reason %q", conflict.Reason)
		}
	}
	if h.classes.bulkInserts != 0 {
		t.Fatalf("expected no insert, got %d", h.classes.bulkInserts)
	}
	if _, err := h.series.GetSeries(context.Background(), result.SeriesID); err != nil {
		t.Fatalf("expected empty series to exist: %v", err)
	}
}

func TestSeriesService_CreateSeries_DefaultsEndDateAndCap(t *testing.T) {
	t.Parallel()

	h := newSeriesHarness()
	pattern := weeklyPattern()
	pattern.RecurrenceType = RecurrenceDaily
	pattern.RecurrenceDays = nil
	pattern.EndDate = nil
	pattern.MaxOccurrences = 3

	result, err := h.svc.CreateSeries(context.Background(), pattern)
	if err != nil {
		t.Fatalf("CreateSeries returned error: %v", err)
	}
	if result.ClassesCreated != 3 {
		t.Fatalf("expected count cap of 3, got %d", result.ClassesCreated)
	}

	series, _ := h.series.GetSeries(context.Background(), result.SeriesID)
	if want := date(time.April, 1); !series.EndDate.Equal(want) {
		t.Fatalf("expected resolved end date %v, got %v", want, series.EndDate)
	}
}

func TestSeriesService_CreateSeries_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RecurrencePattern)
		field  string
	}{
		{name: "missing title", mutate: func(p *RecurrencePattern) { p.Title = "  " }, field: "title"},
		{name: "missing gym", mutate: func(p *RecurrencePattern) { p.GymID = "" }, field: "gym_id"},
		{name: "zero capacity", mutate: func(p *RecurrencePattern) { p.Capacity = 0 }, field: "capacity"},
		{name: "unknown recurrence", mutate: func(p *RecurrencePattern) { p.RecurrenceType = "yearly" }, field: "recurrence_type"},
		{name: "weekday out of range", mutate: func(p *RecurrencePattern) { p.RecurrenceDays = []int{1, 8} }, field: "recurrence_days"},
		{name: "malformed clock", mutate: func(p *RecurrencePattern) { p.StartTime = "7:00" }, field: "start_time"},
		{name: "end before start", mutate: func(p *RecurrencePattern) { p.EndTime = "06:30" }, field: "end_time"},
		{name: "missing start date", mutate: func(p *RecurrencePattern) { p.StartDate = time.Time{} }, field: "start_date"},
		{name: "end date before start date", mutate: func(p *RecurrencePattern) { p.EndDate = ptr(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)) }, field: "end_date"},
		{name: "empty coach", mutate: func(p *RecurrencePattern) { p.CoachID = ptr("") }, field: "coach_id"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newSeriesHarness()
			pattern := weeklyPattern()
			tt.mutate(&pattern)

			_, err := h.svc.CreateSeries(context.Background(), pattern)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !hasFieldError(vErr, tt.field) {
				t.Fatalf("expected error for %q, got %v", tt.field, vErr.FieldErrors)
			}
			if len(h.series.series) != 0 || len(h.checker.locationCalls) != 0 {
				t.Fatalf("invalid pattern must not reach storage or availability checks")
			}
		})
	}
}

func TestSeriesService_CreateSeries_PropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	t.Run("series row", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness()
		h.series.createErr = persistence.ErrDuplicate

		_, err := h.svc.CreateSeries(context.Background(), weeklyPattern())
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("bulk insert", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness()
		diskFull := errors.New("disk full")
		h.classes.createErr = diskFull

		_, err := h.svc.CreateSeries(context.Background(), weeklyPattern())
		if !errors.Is(err, diskFull) {
			t.Fatalf("expected storage error to propagate, got %v", err)
		}
	})
}

func seriesClass(id string, start time.Time) persistence.Class {
	return testfixtures.NewClass(start, testfixtures.WithClassID(id), testfixtures.WithSeries("series-1"))
}

func TestSeriesService_DeleteSeries(t *testing.T) {
	t.Parallel()

	now := testfixtures.ReferenceTime()
	past := seriesClass("past", now.Add(-24*time.Hour))
	future := seriesClass("future", now.Add(24*time.Hour))
	standalone := testfixtures.NewClass(now.Add(48*time.Hour), testfixtures.WithClassID("standalone"))

	t.Run("future keeps series and past occurrences", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(past, future, standalone)
		h.series.series["series-1"] = testfixtures.NewSeries("series-1")

		if err := h.svc.DeleteSeries(context.Background(), "series-1", DeleteFuture); err != nil {
			t.Fatalf("DeleteSeries returned error: %v", err)
		}
		if _, err := h.classes.GetClass(context.Background(), "future"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected future occurrence to be removed, got %v", err)
		}
		for _, id := range []string{"past", "standalone"} {
			if _, err := h.classes.GetClass(context.Background(), id); err != nil {
				t.Fatalf("expected %s to remain: %v", id, err)
			}
		}
		if _, err := h.series.GetSeries(context.Background(), "series-1"); err != nil {
			t.Fatalf("expected series row to remain: %v", err)
		}
	})

	t.Run("all removes series and occurrences", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(past, future, standalone)
		h.series.series["series-1"] = testfixtures.NewSeries("series-1")

		if err := h.svc.DeleteSeries(context.Background(), "series-1", DeleteAll); err != nil {
			t.Fatalf("DeleteSeries returned error: %v", err)
		}
		remaining := h.classes.all()
		if len(remaining) != 1 || remaining[0].ID != "standalone" {
			t.Fatalf("unexpected remaining classes %+v", remaining)
		}
		if _, err := h.series.GetSeries(context.Background(), "series-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected series row to be removed, got %v", err)
		}
	})

	t.Run("unknown scope", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness()
		var vErr *ValidationError
		if err := h.svc.DeleteSeries(context.Background(), "series-1", "past"); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing series", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness()
		if err := h.svc.DeleteSeries(context.Background(), "missing", DeleteAll); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSeriesService_UpdateClassInstance(t *testing.T) {
	t.Parallel()

	start := at(time.January, 8, 7, 0)
	original := testfixtures.NewClass(start,
		testfixtures.WithClassID("class-1"),
		testfixtures.WithCoach("coach-1"),
		testfixtures.WithSeries("series-1"),
	)

	t.Run("capacity only skips availability checks", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(original)

		result, err := h.svc.UpdateClassInstance(context.Background(), "class-1", ClassUpdate{Capacity: ptr(20)}, false)
		if err != nil || !result.Success {
			t.Fatalf("UpdateClassInstance = %+v, %v", result, err)
		}
		if len(h.checker.locationCalls) != 0 || len(h.checker.coachCalls) != 0 {
			t.Fatalf("expected no availability checks")
		}

		updated, _ := h.classes.GetClass(context.Background(), "class-1")
		if updated.Capacity != 20 {
			t.Fatalf("capacity not applied: %d", updated.Capacity)
		}
		if updated.Title != original.Title || !updated.Start.Equal(original.Start) || updated.SeriesID == nil {
			t.Fatalf("untouched fields changed: %+v", updated)
		}
		if !updated.UpdatedAt.Equal(h.clock.Now()) {
			t.Fatalf("expected updated timestamp %v, got %v", h.clock.Now(), updated.UpdatedAt)
		}
	})

	t.Run("moving to a busy location is rejected", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(original)
		newStart := at(time.January, 9, 18, 0)
		h.checker.busyLocation = map[time.Time][]scheduler.Booking{newStart: {{Title: "HIIT"}}}

		result, err := h.svc.UpdateClassInstance(context.Background(), "class-1", ClassUpdate{
			Start:      ptr(newStart),
			End:        ptr(newStart.Add(time.Hour)),
			LocationID: ptr("room-b"),
		}, false)
		if err != nil {
			t.Fatalf("UpdateClassInstance returned error: %v", err)
		}
		if result.Success || !strings.HasPrefix(result.Error, "location busy:") {
			t.Fatalf("unexpected result %+v", result)
		}

		if len(h.checker.locationCalls) != 1 {
			t.Fatalf("expected one location check, got %d", len(h.checker.locationCalls))
		}
		call := h.checker.locationCalls[0]
		if call.locationID != "room-b" || call.exclude != "class-1" {
			t.Fatalf("unexpected location check %+v", call)
		}
		if len(h.checker.coachCalls) != 0 {
			t.Fatalf("coach must not be rechecked on update")
		}

		unchanged, _ := h.classes.GetClass(context.Background(), "class-1")
		if !unchanged.Start.Equal(start) || unchanged.LocationID != "room-a" {
			t.Fatalf("rejected update was applied: %+v", unchanged)
		}
	})

	t.Run("partial time change skips the location check", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(original)

		result, err := h.svc.UpdateClassInstance(context.Background(), "class-1", ClassUpdate{End: ptr(start.Add(90 * time.Minute))}, false)
		if err != nil || !result.Success {
			t.Fatalf("UpdateClassInstance = %+v, %v", result, err)
		}
		if len(h.checker.locationCalls) != 0 {
			t.Fatalf("expected no location check without start, end and location")
		}
	})

	t.Run("break from series detaches", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(original)

		result, err := h.svc.UpdateClassInstance(context.Background(), "class-1", ClassUpdate{Title: ptr("Private session")}, true)
		if err != nil || !result.Success {
			t.Fatalf("UpdateClassInstance = %+v, %v", result, err)
		}
		updated, _ := h.classes.GetClass(context.Background(), "class-1")
		if updated.SeriesID != nil || updated.IsRecurring {
			t.Fatalf("expected class to be detached: %+v", updated)
		}
		if updated.Title != "Private session" {
			t.Fatalf("title not applied: %q", updated.Title)
		}
	})

	t.Run("invalid window", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(original)

		_, err := h.svc.UpdateClassInstance(context.Background(), "class-1", ClassUpdate{End: ptr(start.Add(-time.Minute))}, false)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["end_time"]; !ok {
			t.Fatalf("expected end_time error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness(original)

		_, err := h.svc.UpdateClassInstance(context.Background(), "class-1", ClassUpdate{Status: ptr("postponed")}, false)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing class", func(t *testing.T) {
		t.Parallel()
		h := newSeriesHarness()

		if _, err := h.svc.UpdateClassInstance(context.Background(), "missing", ClassUpdate{Capacity: ptr(5)}, false); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSeriesService_GetAndListSeries(t *testing.T) {
	t.Parallel()

	h := newSeriesHarness(seriesClass("linked", at(time.January, 1, 8, 0)))
	h.series.series["series-1"] = testfixtures.NewSeries("series-1")

	detail, err := h.svc.GetSeries(context.Background(), "series-1")
	if err != nil {
		t.Fatalf("GetSeries returned error: %v", err)
	}
	if detail.Series.RecurrenceType != RecurrenceWeekly || len(detail.Classes) != 1 || detail.Classes[0].ID != "linked" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	if _, err := h.svc.GetSeries(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := h.svc.ListSeries(context.Background(), "gym-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSeries = %+v, %v", list, err)
	}

	var vErr *ValidationError
	if _, err := h.svc.ListSeries(context.Background(), ""); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func hasFieldError(vErr *ValidationError, field string) bool {
	for key := range vErr.FieldErrors {
		if key == field || strings.HasPrefix(key, field+"[") {
			return true
		}
	}
	return false
}

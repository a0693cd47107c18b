package calendar

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/class-scheduler/internal/application"
)

func TestExportSeries(t *testing.T) {
	t.Parallel()

	description := "Bring a mat"
	seriesID := "series-1"
	start := time.Date(2024, time.January, 1, 7, 0, 0, 0, time.UTC)
	series := application.Series{ID: seriesID, Title: "Morning Flow"}
	classes := []application.Class{
		{
			ID:          "class-1",
			Title:       "Morning Flow",
			Description: &description,
			LocationID:  "room-a",
			Start:       start,
			End:         start.Add(time.Hour),
			Status:      application.StatusScheduled,
			SeriesID:    &seriesID,
			CreatedAt:   start.Add(-24 * time.Hour),
			UpdatedAt:   start.Add(-24 * time.Hour),
		},
		{
			ID:         "class-2",
			Title:      "Morning Flow",
			LocationID: "room-a",
			Start:      start.AddDate(0, 0, 7),
			End:        start.AddDate(0, 0, 7).Add(time.Hour),
			Status:     application.StatusCancelled,
			SeriesID:   &seriesID,
			CreatedAt:  start.Add(-24 * time.Hour),
			UpdatedAt:  start,
		},
	}

	body := ExportSeries(series, classes, start)
	if strings.Contains(body, "RRULE") {
		t.Fatalf("export must not contain recurrence rules")
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("exported calendar does not parse: %v", err)
	}

	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if uid := first.GetProperty(ical.ComponentPropertyUniqueId); uid == nil || uid.Value != "class-1@class-scheduler" {
		t.Fatalf("unexpected UID %+v", uid)
	}
	if summary := first.GetProperty(ical.ComponentPropertySummary); summary == nil || summary.Value != "Morning Flow" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if desc := first.GetProperty(ical.ComponentPropertyDescription); desc == nil || desc.Value != description {
		t.Fatalf("unexpected description %+v", desc)
	}
	gotStart, err := first.GetStartAt()
	if err != nil || !gotStart.Equal(start) {
		t.Fatalf("unexpected start %v (%v)", gotStart, err)
	}

	second := events[1]
	if status := second.GetProperty(ical.ComponentPropertyStatus); status == nil || status.Value != string(ical.ObjectStatusCancelled) {
		t.Fatalf("expected cancelled status, got %+v", status)
	}
	if desc := second.GetProperty(ical.ComponentPropertyDescription); desc != nil {
		t.Fatalf("expected no description, got %q", desc.Value)
	}
}

func TestExportSeriesWithoutClasses(t *testing.T) {
	t.Parallel()

	body := ExportSeries(application.Series{Title: "Empty"}, nil, time.Now())
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("exported calendar does not parse: %v", err)
	}
	if len(cal.Events()) != 0 {
		t.Fatalf("expected no events")
	}
}

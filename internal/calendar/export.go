// Package calendar renders stored classes as iCalendar documents so members can
// subscribe to a series from their own calendar app.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/class-scheduler/internal/application"
)

const productID = "-//class-scheduler//series export//EN"

// ExportSeries renders one VEVENT per stored occurrence of the series. Occurrences are
// written out individually rather than as a recurrence rule, so detached or moved
// classes and gaps left by conflicts are reflected exactly.
func ExportSeries(series application.Series, classes []application.Class, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(series.Title)

	for _, class := range classes {
		addEvent(cal, class, now)
	}
	return cal.Serialize()
}

func addEvent(cal *ical.Calendar, class application.Class, now time.Time) {
	event := cal.AddEvent(eventUID(class.ID))
	event.SetDtStampTime(now.UTC())
	event.SetCreatedTime(class.CreatedAt.UTC())
	event.SetModifiedAt(class.UpdatedAt.UTC())
	event.SetStartAt(class.Start.UTC())
	event.SetEndAt(class.End.UTC())
	event.SetSummary(class.Title)
	event.SetLocation(class.LocationID)
	if class.Description != nil && strings.TrimSpace(*class.Description) != "" {
		event.SetDescription(*class.Description)
	}
	switch class.Status {
	case application.StatusCancelled:
		event.SetStatus(ical.ObjectStatusCancelled)
	default:
		event.SetStatus(ical.ObjectStatusConfirmed)
	}
}

func eventUID(classID string) string {
	return fmt.Sprintf("%s@class-scheduler", classID)
}

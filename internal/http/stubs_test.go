package http

import (
	"context"
	"time"

	"github.com/example/class-scheduler/internal/application"
)

type seriesServiceStub struct {
	createResult application.SeriesCreationResult
	createErr    error
	gotPattern   application.RecurrencePattern

	deleteErr   error
	gotDeleteID string
	gotScope    application.DeleteOption

	detail    application.SeriesDetail
	getErr    error
	gotGetID  string
	list      []application.Series
	listErr   error
	gotListID string
}

func (s *seriesServiceStub) CreateSeries(_ context.Context, pattern application.RecurrencePattern) (application.SeriesCreationResult, error) {
	s.gotPattern = pattern
	return s.createResult, s.createErr
}

func (s *seriesServiceStub) DeleteSeries(_ context.Context, seriesID string, option application.DeleteOption) error {
	s.gotDeleteID = seriesID
	s.gotScope = option
	return s.deleteErr
}

func (s *seriesServiceStub) GetSeries(_ context.Context, seriesID string) (application.SeriesDetail, error) {
	s.gotGetID = seriesID
	return s.detail, s.getErr
}

func (s *seriesServiceStub) ListSeries(_ context.Context, gymID string) ([]application.Series, error) {
	s.gotListID = gymID
	return s.list, s.listErr
}

type classServiceStub struct {
	createResult application.SingleClassResult
	createErr    error
	gotParams    application.SingleClassParams

	class    application.Class
	getErr   error
	gotGetID string

	listing    application.ClassListing
	listErr    error
	gotListing application.ListClassesParams

	updateResult application.UpdateResult
	updateErr    error
	gotUpdateID  string
	gotUpdate    application.ClassUpdate
	gotBreak     bool
}

func (s *classServiceStub) CreateSingleClass(_ context.Context, params application.SingleClassParams) (application.SingleClassResult, error) {
	s.gotParams = params
	return s.createResult, s.createErr
}

func (s *classServiceStub) GetClass(_ context.Context, classID string) (application.Class, error) {
	s.gotGetID = classID
	return s.class, s.getErr
}

func (s *classServiceStub) ListClasses(_ context.Context, params application.ListClassesParams) (application.ClassListing, error) {
	s.gotListing = params
	return s.listing, s.listErr
}

func (s *classServiceStub) UpdateClassInstance(_ context.Context, classID string, updates application.ClassUpdate, breakFromSeries bool) (application.UpdateResult, error) {
	s.gotUpdateID = classID
	s.gotUpdate = updates
	s.gotBreak = breakFromSeries
	return s.updateResult, s.updateErr
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error { return p.err }

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

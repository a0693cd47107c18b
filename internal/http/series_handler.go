package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/class-scheduler/internal/application"
	"github.com/example/class-scheduler/internal/calendar"
	"github.com/example/class-scheduler/internal/recurrence"
)

type seriesService interface {
	CreateSeries(ctx context.Context, pattern application.RecurrencePattern) (application.SeriesCreationResult, error)
	DeleteSeries(ctx context.Context, seriesID string, option application.DeleteOption) error
	GetSeries(ctx context.Context, seriesID string) (application.SeriesDetail, error)
	ListSeries(ctx context.Context, gymID string) ([]application.Series, error)
}

type SeriesHandler struct {
	service   seriesService
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
	responder responder
}

// NewSeriesHandler builds a handler rendering timestamps in loc.
func NewSeriesHandler(service seriesService, loc *time.Location, logger *slog.Logger) *SeriesHandler {
	return &SeriesHandler{
		service:   service,
		location:  locationOrUTC(loc),
		now:       time.Now,
		logger:    logger,
		responder: newResponder(logger),
	}
}

func (h *SeriesHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "SeriesHandler", operation, attrs...)
}

func (h *SeriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Create").WarnContext(ctx, "invalid request body", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	pattern, field, msg := req.toPattern()
	if field != "" {
		h.responder.writeFieldError(ctx, w, field, msg)
		return
	}

	result, err := h.service.CreateSeries(ctx, pattern)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, newSeriesCreatedResponse(result, h.location))
}

func (h *SeriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	series, err := h.service.ListSeries(ctx, r.URL.Query().Get("gym_id"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := make([]seriesResponse, 0, len(series))
	for _, s := range series {
		resp = append(resp, newSeriesResponse(s))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.service.GetSeries(ctx, chi.URLParam(r, "seriesID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := seriesDetailResponse{
		seriesResponse: newSeriesResponse(detail.Series),
		Classes:        newClassResponses(detail.Classes, h.location),
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *SeriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seriesID := chi.URLParam(r, "seriesID")
	scope := application.DeleteOption(strings.TrimSpace(r.URL.Query().Get("scope")))

	if err := h.service.DeleteSeries(ctx, seriesID, scope); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.log(ctx, "Delete", "series_id", seriesID, "scope", string(scope)).InfoContext(ctx, "series deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// Calendar serves the series' stored occurrences as an iCalendar feed.
func (h *SeriesHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.service.GetSeries(ctx, chi.URLParam(r, "seriesID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	body := calendar.ExportSeries(detail.Series, detail.Classes, h.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="series-`+detail.Series.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.log(ctx, "Calendar").ErrorContext(ctx, "failed to write calendar", "error", err)
	}
}

type seriesRequest struct {
	GymID          string  `json:"gym_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	ClassTypeID    string  `json:"class_type_id"`
	LocationID     string  `json:"location_id"`
	CoachID        *string `json:"coach_id"`
	Capacity       int     `json:"capacity"`
	RecurrenceType string  `json:"recurrence_type"`
	RecurrenceDays []int   `json:"recurrence_days"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	MaxOccurrences int     `json:"max_occurrences"`
}

// toPattern converts the body, returning the offending field when a date does not parse.
func (req seriesRequest) toPattern() (application.RecurrencePattern, string, string) {
	pattern := application.RecurrencePattern{
		GymID:          req.GymID,
		Title:          req.Title,
		Description:    req.Description,
		ClassTypeID:    req.ClassTypeID,
		LocationID:     req.LocationID,
		CoachID:        req.CoachID,
		Capacity:       req.Capacity,
		RecurrenceType: application.RecurrenceType(req.RecurrenceType),
		RecurrenceDays: req.RecurrenceDays,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		MaxOccurrences: req.MaxOccurrences,
	}

	if strings.TrimSpace(req.StartDate) != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			return application.RecurrencePattern{}, "start_date", "start_date must be formatted as YYYY-MM-DD"
		}
		pattern.StartDate = start
	}
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return application.RecurrencePattern{}, "end_date", "end_date must be formatted as YYYY-MM-DD"
		}
		pattern.EndDate = &end
	}
	return pattern, "", ""
}

type conflictResponse struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type seriesCreatedResponse struct {
	SeriesID       string             `json:"series_id"`
	ClassesCreated int                `json:"classes_created"`
	Conflicts      []conflictResponse `json:"conflicts"`
}

func newSeriesCreatedResponse(result application.SeriesCreationResult, loc *time.Location) seriesCreatedResponse {
	conflicts := make([]conflictResponse, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		conflicts = append(conflicts, conflictResponse{Date: formatTimestamp(c.Date, loc), Reason: c.Reason})
	}
	return seriesCreatedResponse{
		SeriesID:       result.SeriesID,
		ClassesCreated: result.ClassesCreated,
		Conflicts:      conflicts,
	}
}

type seriesResponse struct {
	ID             string  `json:"id"`
	GymID          string  `json:"gym_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	ClassTypeID    string  `json:"class_type_id"`
	LocationID     string  `json:"location_id"`
	CoachID        *string `json:"coach_id,omitempty"`
	Capacity       int     `json:"capacity"`
	RecurrenceType string  `json:"recurrence_type"`
	RecurrenceDays []int   `json:"recurrence_days,omitempty"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func newSeriesResponse(s application.Series) seriesResponse {
	return seriesResponse{
		ID:             s.ID,
		GymID:          s.GymID,
		Title:          s.Title,
		Description:    s.Description,
		ClassTypeID:    s.ClassTypeID,
		LocationID:     s.LocationID,
		CoachID:        s.CoachID,
		Capacity:       s.Capacity,
		RecurrenceType: string(s.RecurrenceType),
		RecurrenceDays: s.RecurrenceDays,
		StartDate:      recurrence.FormatDate(s.StartDate),
		EndDate:        recurrence.FormatDate(s.EndDate),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		CreatedAt:      s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type seriesDetailResponse struct {
	seriesResponse
	Classes []classResponse `json:"classes"`
}

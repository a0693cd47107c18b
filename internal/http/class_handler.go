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
)

type classService interface {
	CreateSingleClass(ctx context.Context, params application.SingleClassParams) (application.SingleClassResult, error)
	GetClass(ctx context.Context, classID string) (application.Class, error)
	ListClasses(ctx context.Context, params application.ListClassesParams) (application.ClassListing, error)
}

type classUpdater interface {
	UpdateClassInstance(ctx context.Context, classID string, updates application.ClassUpdate, breakFromSeries bool) (application.UpdateResult, error)
}

type ClassHandler struct {
	service   classService
	updater   classUpdater
	location  *time.Location
	logger    *slog.Logger
	responder responder
}

// NewClassHandler builds a handler for standalone class operations. Updates go through
// updater because they may detach a class from its series.
func NewClassHandler(service classService, updater classUpdater, loc *time.Location, logger *slog.Logger) *ClassHandler {
	return &ClassHandler{
		service:   service,
		updater:   updater,
		location:  locationOrUTC(loc),
		logger:    logger,
		responder: newResponder(logger),
	}
}

func (h *ClassHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ClassHandler", operation, attrs...)
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req classRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Create").WarnContext(ctx, "invalid request body", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.SingleClassParams{
		GymID:       req.GymID,
		Title:       req.Title,
		Description: req.Description,
		ClassTypeID: req.ClassTypeID,
		LocationID:  req.LocationID,
		CoachID:     req.CoachID,
		Capacity:    req.Capacity,
	}
	if strings.TrimSpace(req.StartTime) != "" {
		start, err := parseTimestamp(req.StartTime, h.location)
		if err != nil {
			h.responder.writeFieldError(ctx, w, "start_time", "start_time "+err.Error())
			return
		}
		params.Start = start
	}
	if strings.TrimSpace(req.EndTime) != "" {
		end, err := parseTimestamp(req.EndTime, h.location)
		if err != nil {
			h.responder.writeFieldError(ctx, w, "end_time", "end_time "+err.Error())
			return
		}
		params.End = end
	}

	result, err := h.service.CreateSingleClass(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusConflict
	}
	h.responder.writeJSON(ctx, w, status, outcomeResponse{
		Success: result.Success,
		ClassID: result.ClassID,
		Error:   result.Error,
	})
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	params := application.ListClassesParams{GymID: query.Get("gym_id")}
	for _, bound := range []struct {
		name   string
		target **time.Time
	}{
		{"from", &params.From},
		{"to", &params.To},
	} {
		raw := strings.TrimSpace(query.Get(bound.name))
		if raw == "" {
			continue
		}
		t, err := parseTimestamp(raw, h.location)
		if err != nil {
			h.responder.writeFieldError(ctx, w, bound.name, bound.name+" "+err.Error())
			return
		}
		*bound.target = &t
	}
	for _, status := range query["status"] {
		for _, s := range strings.Split(status, ",") {
			if s = strings.TrimSpace(s); s != "" {
				params.Statuses = append(params.Statuses, s)
			}
		}
	}

	listing, err := h.service.ListClasses(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	warnings := make([]warningResponse, 0, len(listing.Warnings))
	for _, warning := range listing.Warnings {
		warnings = append(warnings, warningResponse{
			ClassID:     warning.ClassID,
			WithClassID: warning.WithClassID,
			Type:        warning.Type,
			ResourceID:  warning.ResourceID,
		})
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, classListingResponse{
		Classes:  newClassResponses(listing.Classes, h.location),
		Warnings: warnings,
	})
}

func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	class, err := h.service.GetClass(ctx, chi.URLParam(r, "classID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, newClassResponse(class, h.location))
}

func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classID := chi.URLParam(r, "classID")

	var req classUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Update", "class_id", classID).WarnContext(ctx, "invalid request body", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	updates := application.ClassUpdate{
		Title:       req.Title,
		Description: req.Description,
		ClassTypeID: req.ClassTypeID,
		LocationID:  req.LocationID,
		CoachID:     req.CoachID,
		Capacity:    req.Capacity,
		Status:      req.Status,
	}
	start, err := parseOptionalTimestamp(req.StartTime, h.location)
	if err != nil {
		h.responder.writeFieldError(ctx, w, "start_time", "start_time "+err.Error())
		return
	}
	end, err := parseOptionalTimestamp(req.EndTime, h.location)
	if err != nil {
		h.responder.writeFieldError(ctx, w, "end_time", "end_time "+err.Error())
		return
	}
	updates.Start = start
	updates.End = end

	result, err := h.updater.UpdateClassInstance(ctx, classID, updates, req.BreakFromSeries)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	h.responder.writeJSON(ctx, w, status, outcomeResponse{Success: result.Success, Error: result.Error})
}

type classRequest struct {
	GymID       string  `json:"gym_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ClassTypeID string  `json:"class_type_id"`
	LocationID  string  `json:"location_id"`
	CoachID     *string `json:"coach_id"`
	Capacity    int     `json:"capacity"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

type classUpdateRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	ClassTypeID     *string `json:"class_type_id"`
	LocationID      *string `json:"location_id"`
	CoachID         *string `json:"coach_id"`
	Capacity        *int    `json:"capacity"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	Status          *string `json:"status"`
	BreakFromSeries bool    `json:"break_from_series"`
}

type outcomeResponse struct {
	Success bool   `json:"success"`
	ClassID string `json:"class_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type classResponse struct {
	ID          string  `json:"id"`
	GymID       string  `json:"gym_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ClassTypeID string  `json:"class_type_id"`
	LocationID  string  `json:"location_id"`
	CoachID     *string `json:"coach_id,omitempty"`
	Capacity    int     `json:"capacity"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Status      string  `json:"status"`
	IsRecurring bool    `json:"is_recurring"`
	SeriesID    *string `json:"series_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func newClassResponse(class application.Class, loc *time.Location) classResponse {
	return classResponse{
		ID:          class.ID,
		GymID:       class.GymID,
		Title:       class.Title,
		Description: class.Description,
		ClassTypeID: class.ClassTypeID,
		LocationID:  class.LocationID,
		CoachID:     class.CoachID,
		Capacity:    class.Capacity,
		StartTime:   formatTimestamp(class.Start, loc),
		EndTime:     formatTimestamp(class.End, loc),
		Status:      class.Status,
		IsRecurring: class.IsRecurring,
		SeriesID:    class.SeriesID,
		CreatedAt:   formatTimestamp(class.CreatedAt, time.UTC),
		UpdatedAt:   formatTimestamp(class.UpdatedAt, time.UTC),
	}
}

func newClassResponses(classes []application.Class, loc *time.Location) []classResponse {
	resp := make([]classResponse, 0, len(classes))
	for _, class := range classes {
		resp = append(resp, newClassResponse(class, loc))
	}
	return resp
}

type warningResponse struct {
	ClassID     string `json:"class_id"`
	WithClassID string `json:"with_class_id"`
	Type        string `json:"type"`
	ResourceID  string `json:"resource_id"`
}

type classListingResponse struct {
	Classes  []classResponse   `json:"classes"`
	Warnings []warningResponse `json:"warnings"`
}

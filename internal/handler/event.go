package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plantogether/api/internal/middleware"
	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/service"
)

// EventHandler handles event endpoints
type EventHandler struct {
	eventService    *service.EventService
	calendarService *service.CalendarService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService, calendarService *service.CalendarService) *EventHandler {
	return &EventHandler{
		eventService:    eventService,
		calendarService: calendarService,
	}
}

// CreateEvent handles POST /v1/events - create a new event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreateEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.eventService.Create(r.Context(), user, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, event, map[string]string{
		"self": "/v1/events/" + event.ID,
	})
}

// ListEvents handles GET /v1/events - list events visible to the caller
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())

	events, err := h.eventService.List(r.Context(), user)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, events, nil, map[string]string{
		"self": "/v1/events",
	})
}

// GetEvent handles GET /v1/events/{eventId} - get event details
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	user := middleware.GetCurrentUser(r.Context())

	event, err := h.eventService.Get(r.Context(), user, eventID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, event, map[string]string{
		"self":     "/v1/events/" + eventID,
		"schedule": "/v1/events/" + eventID + "/schedule",
		"calendar": "/v1/events/" + eventID + "/calendar",
	})
}

// GetSharedEvent handles GET /v1/shared/{token} - resolve a share link
func (h *EventHandler) GetSharedEvent(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		WriteError(w, model.NewBadRequestError("share token required"))
		return
	}

	event, err := h.eventService.GetByShareToken(r.Context(), token)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, event, nil)
}

// UpdateEvent handles PATCH /v1/events/{eventId} - update an event
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	var req model.UpdateEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.eventService.Update(r.Context(), user, eventID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, event, map[string]string{
		"self": "/v1/events/" + eventID,
	})
}

// DeleteEvent handles DELETE /v1/events/{eventId} - delete an event
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	if err := h.eventService.Delete(r.Context(), user, eventID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// CastDateVote handles POST /v1/events/{eventId}/votes/dates
func (h *EventHandler) CastDateVote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, h.eventService.CastDateVote)
}

// RemoveDateVote handles DELETE /v1/events/{eventId}/votes/dates
func (h *EventHandler) RemoveDateVote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, h.eventService.RemoveDateVote)
}

// CastItemVote handles POST /v1/events/{eventId}/votes/items
func (h *EventHandler) CastItemVote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, h.eventService.CastItemVote)
}

// RemoveItemVote handles DELETE /v1/events/{eventId}/votes/items
func (h *EventHandler) RemoveItemVote(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, h.eventService.RemoveItemVote)
}

type voteFunc func(ctx context.Context, user model.CurrentUser, id string, option string) (*model.Event, error)

func (h *EventHandler) vote(w http.ResponseWriter, r *http.Request, fn voteFunc) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	var req model.CastVoteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		WriteError(w, model.NewValidationError(fieldErrors))
		return
	}

	event, err := fn(r.Context(), user, eventID, req.Option)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, event, map[string]string{
		"self": "/v1/events/" + eventID,
	})
}

// GetVoteTally handles GET /v1/events/{eventId}/votes - per-option vote totals
func (h *EventHandler) GetVoteTally(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	user := middleware.GetCurrentUser(r.Context())

	event, err := h.eventService.Get(r.Context(), user, eventID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, service.Tally(event.Votes), map[string]string{
		"self": "/v1/events/" + eventID + "/votes",
	})
}

// AddComment handles POST /v1/events/{eventId}/comments
func (h *EventHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	var req model.AddCommentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.eventService.AddComment(r.Context(), user, eventID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, event, map[string]string{
		"self": "/v1/events/" + eventID,
	})
}

// SubmitRSVP handles PUT /v1/events/{eventId}/rsvp - set the caller's RSVP
func (h *EventHandler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	var req model.RSVPRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.eventService.SubmitRSVP(r.Context(), user, eventID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, event, map[string]string{
		"self": "/v1/events/" + eventID,
	})
}

// GetSchedule handles GET /v1/events/{eventId}/schedule - derived schedule state
func (h *EventHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	user := middleware.GetCurrentUser(r.Context())

	schedule, err := h.eventService.Schedule(r.Context(), user, eventID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, schedule, map[string]string{
		"self":  "/v1/events/" + eventID + "/schedule",
		"event": "/v1/events/" + eventID,
	})
}

// DownloadCalendar handles GET /v1/events/{eventId}/calendar - ICS export
func (h *EventHandler) DownloadCalendar(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	user := middleware.GetCurrentUser(r.Context())

	event, err := h.eventService.Get(r.Context(), user, eventID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	file, err := h.calendarService.Export(event)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	w.Header().Set("Content-Type", file.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

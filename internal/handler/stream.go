package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/plantogether/api/internal/middleware"
	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/service"
)

// StreamHandler handles SSE streaming endpoints
type StreamHandler struct {
	hub *service.StreamHub
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hub *service.StreamHub) *StreamHandler {
	return &StreamHandler{
		hub: hub,
	}
}

// StreamEvent handles GET /v1/events/{eventId}/stream
// This endpoint streams live updates for a single event
func (h *StreamHandler) StreamEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		WriteError(w, model.NewBadRequestError("event ID required"))
		return
	}

	flusher, ok := prepareSSE(w)
	if !ok {
		return
	}

	subscriberID := uuid.New().String()
	sub := h.hub.Subscribe(eventID, subscriberID)
	defer h.hub.Unsubscribe(eventID, subscriberID)

	streamTo(w, r, flusher, subscriberID, sub)
}

// StreamUser handles GET /v1/stream
// This endpoint streams notifications for the authenticated user
func (h *StreamHandler) StreamUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	flusher, ok := prepareSSE(w)
	if !ok {
		return
	}

	subscriberID := uuid.New().String()
	sub := h.hub.SubscribeUser(userID, subscriberID)
	defer h.hub.UnsubscribeUser(userID, subscriberID)

	streamTo(w, r, flusher, subscriberID, sub)
}

func prepareSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	return flusher, true
}

func streamTo(w http.ResponseWriter, r *http.Request, flusher http.Flusher, subscriberID string, sub *service.StreamSubscriber) {
	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"subscriberId\":\"%s\"}\n\n", subscriberID)
	flusher.Flush()

	for {
		select {
		case msg, ok := <-sub.Messages:
			if !ok {
				return
			}
			fmt.Fprint(w, msg.Format())
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

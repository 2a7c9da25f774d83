package handler

import (
	"net/http"

	"github.com/plantogether/api/internal/middleware"
	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/service"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	notifications, err := h.notificationService.List(r.Context(), user)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, notifications, nil, map[string]string{
		"self": "/v1/notifications",
	})
}

// UnreadCount handles GET /v1/notifications/unread
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), user)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, map[string]int{"unread": count}, nil)
}

// MarkRead handles POST /v1/notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	notificationID := r.PathValue("notificationId")
	if notificationID == "" {
		WriteError(w, model.NewBadRequestError("notification ID required"))
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), user, notificationID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// MarkAllRead handles POST /v1/notifications/read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetCurrentUser(r.Context())
	if user.ID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), user); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

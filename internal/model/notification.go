package model

import "time"

// NotificationType categorizes a notification for display
type NotificationType string

const (
	NotificationEventCreated NotificationType = "event_created"
	NotificationVoteDeadline NotificationType = "vote_deadline"
	NotificationComment      NotificationType = "comment"
	NotificationEventUpdated NotificationType = "event_updated"
)

// Notification is a per-user message, consumed read-only plus a read flip.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	EventID   string           `json:"eventId,omitempty"`
	EventName string           `json:"eventName,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

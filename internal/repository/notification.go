package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/model"
)

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	db database.Database
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	query := `
		CREATE notification CONTENT {
			userId: $user_id,
			type: $type,
			title: $title,
			message: $message,
			eventId: $event_id,
			eventName: $event_name,
			read: false,
			createdAt: time::now()
		} RETURN AFTER`

	params := map[string]interface{}{
		"user_id":    n.UserID,
		"type":       string(n.Type),
		"title":      n.Title,
		"message":    n.Message,
		"event_id":   n.EventID,
		"event_name": n.EventName,
	}

	result, err := r.db.QueryOne(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return parseNotificationResult(result)
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	query := `SELECT * FROM notification WHERE userId = $user_id ORDER BY createdAt DESC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return parseNotificationsResult(result)
}

// CountUnread returns the number of unread notifications for a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() AS count FROM notification WHERE userId = $user_id AND read = false GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return extractCount(result), nil
}

// MarkRead marks a single notification as read.
// The userId filter prevents marking another user's notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, userID string) error {
	query := `UPDATE type::record($notification_id) SET read = true WHERE userId = $user_id`
	err := r.db.Execute(ctx, query, map[string]interface{}{
		"notification_id": id,
		"user_id":         userID,
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	query := `UPDATE notification SET read = true WHERE userId = $user_id AND read = false`
	err := r.db.Execute(ctx, query, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// ExistsForEvent reports whether a notification of the given type has
// already been written for an event and user. The deadline job uses this
// to avoid duplicate reminders across runs.
func (r *NotificationRepository) ExistsForEvent(ctx context.Context, userID string, eventID string, nType model.NotificationType) (bool, error) {
	query := `SELECT count() AS count FROM notification
		WHERE userId = $user_id AND eventId = $event_id AND type = $type GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id":  userID,
		"event_id": eventID,
		"type":     string(nType),
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check notification: %w", err)
	}

	return extractCount(result) > 0, nil
}

// parseNotificationResult converts a single SurrealDB result into a Notification
func parseNotificationResult(result interface{}) (*model.Notification, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}
	return parseNotificationData(data)
}

// parseNotificationsResult converts Query payloads into Notifications
func parseNotificationsResult(payloads []interface{}) ([]*model.Notification, error) {
	records := recordList(payloads)
	notifications := make([]*model.Notification, 0, len(records))
	for _, data := range records {
		n, err := parseNotificationData(data)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// parseNotificationData builds a Notification from a raw record map
func parseNotificationData(data map[string]interface{}) (*model.Notification, error) {
	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if userID, ok := data["userId"]; ok {
		data["userId"] = convertSurrealID(userID)
	}
	normalizeTimes(data, "createdAt")

	var n model.Notification
	if err := decodeRecord(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse notification: %w", err)
	}
	return &n, nil
}

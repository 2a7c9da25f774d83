package service

import (
	"context"
	"fmt"

	"github.com/plantogether/api/internal/model"
)

// NotificationRepository defines the interface for notification storage
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationService handles notification business logic
type NotificationService struct {
	repo NotificationRepository
	hub  *StreamHub
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo NotificationRepository, hub *StreamHub) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

// List retrieves the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, user model.CurrentUser) ([]*model.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for the user
func (s *NotificationService) UnreadCount(ctx context.Context, user model.CurrentUser) (int, error) {
	count, err := s.repo.CountUnread(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips the read flag on one of the user's notifications
func (s *NotificationService) MarkRead(ctx context.Context, user model.CurrentUser, id string) error {
	if err := s.repo.MarkRead(ctx, id, user.ID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips the read flag on all of the user's notifications
func (s *NotificationService) MarkAllRead(ctx context.Context, user model.CurrentUser) error {
	if err := s.repo.MarkAllRead(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// Send stores a notification and pushes it to the user's live stream
func (s *NotificationService) Send(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	if s.hub != nil {
		s.hub.SendToUser(created.UserID, &StreamMessage{
			Type: StreamNotification,
			Data: created,
		})
	}
	return created, nil
}

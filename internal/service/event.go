package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/model"
)

// maxUpdateAttempts bounds the read-modify-write retry loop for guarded
// event mutations
const maxUpdateAttempts = 3

// EventStore defines the event persistence the service needs
type EventStore interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	GetByShareToken(ctx context.Context, token string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Event, error)
	UpdateGuarded(ctx context.Context, id string, expected time.Time, updates map[string]interface{}) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// NotificationStore is the subset of notification persistence the event
// service writes to
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

// EventService handles event business logic
type EventService struct {
	repo          EventStore
	notifications NotificationStore
	hub           *StreamHub
	now           func() time.Time
}

// EventServiceConfig holds configuration for the event service
type EventServiceConfig struct {
	EventRepo        EventStore
	NotificationRepo NotificationStore
	Hub              *StreamHub
}

// NewEventService creates a new event service
func NewEventService(cfg EventServiceConfig) *EventService {
	return &EventService{
		repo:          cfg.EventRepo,
		notifications: cfg.NotificationRepo,
		hub:           cfg.Hub,
		now:           time.Now,
	}
}

// Create creates a new event. Only admins may create events.
func (s *EventService) Create(ctx context.Context, user model.CurrentUser, req *model.CreateEventRequest) (*model.Event, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if !user.IsAdmin() {
		return nil, model.NewForbiddenError("only admins can create events")
	}

	privacy := model.EventPrivacyPublic
	if req.Privacy != "" {
		privacy = model.EventPrivacy(req.Privacy)
	}

	category := model.EventCategory(req.Category)
	if category == "" {
		category = InferCategory(req.Name + " " + req.Description)
	}

	event := &model.Event{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		DateOptions: req.DateOptions,
		Votes:       model.VoteMap{},
		Items:       req.Items,
		ItemVotes:   model.VoteMap{},
		HostID:      user.ID,
		HostName:    user.Name,
		Privacy:     privacy,
		Category:    category,
		ShareToken:  uuid.NewString(),
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return created, nil
}

// Get retrieves an event, enforcing privacy.
// Private events are reported as not found to users outside the host and
// admin set, so their existence is not revealed.
func (s *EventService) Get(ctx context.Context, user model.CurrentUser, id string) (*model.Event, error) {
	return s.visibleEvent(ctx, user, id)
}

// GetByShareToken retrieves an event via its share link token.
// A valid token grants visibility regardless of privacy.
func (s *EventService) GetByShareToken(ctx context.Context, token string) (*model.Event, error) {
	event, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share token: %w", err)
	}
	if event == nil {
		return nil, model.NewNotFoundError("event not found")
	}
	return event, nil
}

// List retrieves all events visible to the user
func (s *EventService) List(ctx context.Context, user model.CurrentUser) ([]*model.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	visible := make([]*model.Event, 0, len(events))
	for _, event := range events {
		if event.VisibleTo(user) {
			visible = append(visible, event)
		}
	}
	return visible, nil
}

// Update edits event fields. Only the host or an admin may edit.
func (s *EventService) Update(ctx context.Context, user model.CurrentUser, id string, req *model.UpdateEventRequest) (*model.Event, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	event, err := s.visibleEvent(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !event.CanManage(user) {
		return nil, model.NewForbiddenError("only the host or an admin can edit this event")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.DateOptions != nil {
		updates["dateOptions"] = req.DateOptions
	}
	if req.Items != nil {
		updates["items"] = req.Items
	}
	if req.Privacy != nil {
		updates["privacy"] = *req.Privacy
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if len(updates) == 0 {
		return event, nil
	}

	updated, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("event not found")
	}

	s.publishEvent(StreamEventUpdated, updated)
	return updated, nil
}

// Delete removes an event. Only the host or an admin may delete.
func (s *EventService) Delete(ctx context.Context, user model.CurrentUser, id string) error {
	event, err := s.visibleEvent(ctx, user, id)
	if err != nil {
		return err
	}
	if !event.CanManage(user) {
		return model.NewForbiddenError("only the host or an admin can delete this event")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.publishEvent(StreamEventDeleted, event)
	return nil
}

// CastDateVote records the user's vote for a date option.
// Voting closes one hour before the winning date.
func (s *EventService) CastDateVote(ctx context.Context, user model.CurrentUser, id string, option string) (*model.Event, error) {
	return s.applyGuarded(ctx, user, id, func(event *model.Event) (map[string]interface{}, error) {
		if !containsOption(event.DateOptions, option) {
			return nil, model.NewBadRequestError("unknown date option")
		}
		if err := s.checkVotingOpen(event); err != nil {
			return nil, err
		}

		votes, err := CastVote(event.Votes, option, model.Voter{ID: user.ID, Name: user.Name})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"votes": votes}, nil
	})
}

// RemoveDateVote withdraws the user's vote for a date option.
// Removal follows the same window as casting.
func (s *EventService) RemoveDateVote(ctx context.Context, user model.CurrentUser, id string, option string) (*model.Event, error) {
	return s.applyGuarded(ctx, user, id, func(event *model.Event) (map[string]interface{}, error) {
		if !containsOption(event.DateOptions, option) {
			return nil, model.NewBadRequestError("unknown date option")
		}
		if err := s.checkVotingOpen(event); err != nil {
			return nil, err
		}

		votes, err := RemoveVote(event.Votes, option, user.ID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"votes": votes}, nil
	})
}

// CastItemVote records the user's vote for a suggested item.
// Item votes are independent of date votes and are never time-gated.
func (s *EventService) CastItemVote(ctx context.Context, user model.CurrentUser, id string, item string) (*model.Event, error) {
	return s.applyGuarded(ctx, user, id, func(event *model.Event) (map[string]interface{}, error) {
		if !containsOption(event.Items, item) {
			return nil, model.NewBadRequestError("unknown item")
		}

		votes, err := CastVote(event.ItemVotes, item, model.Voter{ID: user.ID, Name: user.Name})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"itemVotes": votes}, nil
	})
}

// RemoveItemVote withdraws the user's vote for a suggested item
func (s *EventService) RemoveItemVote(ctx context.Context, user model.CurrentUser, id string, item string) (*model.Event, error) {
	return s.applyGuarded(ctx, user, id, func(event *model.Event) (map[string]interface{}, error) {
		if !containsOption(event.Items, item) {
			return nil, model.NewBadRequestError("unknown item")
		}

		votes, err := RemoveVote(event.ItemVotes, item, user.ID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"itemVotes": votes}, nil
	})
}

// AddComment appends a comment to the event.
// The host is notified when someone else comments.
func (s *EventService) AddComment(ctx context.Context, user model.CurrentUser, id string, req *model.AddCommentRequest) (*model.Event, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	updated, err := s.applyGuarded(ctx, user, id, func(event *model.Event) (map[string]interface{}, error) {
		comment := model.Comment{
			Text:      req.Text,
			Author:    user.Name,
			AuthorID:  user.ID,
			Timestamp: s.now(),
		}
		comments := make([]model.Comment, 0, len(event.Comments)+1)
		comments = append(comments, event.Comments...)
		comments = append(comments, comment)
		return map[string]interface{}{"comments": comments}, nil
	})
	if err != nil {
		return nil, err
	}

	if updated.HostID != user.ID {
		s.notify(ctx, &model.Notification{
			UserID:    updated.HostID,
			Type:      model.NotificationComment,
			Title:     "New comment",
			Message:   fmt.Sprintf("%s commented on %s", user.Name, updated.Name),
			EventID:   updated.ID,
			EventName: updated.Name,
		})
	}

	return updated, nil
}

// SubmitRSVP records the user's attendance intent. A user has at most one
// RSVP per event; a new submission replaces the previous one.
// RSVPs close six hours before the winning date.
func (s *EventService) SubmitRSVP(ctx context.Context, user model.CurrentUser, id string, req *model.RSVPRequest) (*model.Event, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	return s.applyGuarded(ctx, user, id, func(event *model.Event) (map[string]interface{}, error) {
		if winner, err := ResolveWinningDate(event.DateOptions, event.Votes); err == nil {
			if state := RSVPWindow(winner, s.now()); !state.Open {
				return nil, model.NewConflictError(state.Message)
			}
		}

		entry := model.RSVP{
			UserID:    user.ID,
			Name:      user.Name,
			Status:    model.RSVPStatus(req.Status),
			Timestamp: s.now(),
		}

		rsvps := make([]model.RSVP, 0, len(event.RSVPs)+1)
		replaced := false
		for _, r := range event.RSVPs {
			if r.UserID == user.ID {
				rsvps = append(rsvps, entry)
				replaced = true
				continue
			}
			rsvps = append(rsvps, r)
		}
		if !replaced {
			rsvps = append(rsvps, entry)
		}
		return map[string]interface{}{"rsvps": rsvps}, nil
	})
}

// Schedule returns the derived date, status, and window state for an event
func (s *EventService) Schedule(ctx context.Context, user model.CurrentUser, id string) (*model.EventSchedule, error) {
	event, err := s.visibleEvent(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return BuildSchedule(event, s.now()), nil
}

// BuildSchedule derives the full schedule view from an event snapshot.
// An event without date options is reported as undecided with both
// windows open.
func BuildSchedule(event *model.Event, now time.Time) *model.EventSchedule {
	schedule := &model.EventSchedule{
		Status:     model.EventStatusUpcoming,
		Freshness:  ClassifyFreshness(event.CreatedAt, now),
		Category:   ClassifyCategory(event),
		RSVPCounts: model.CountRSVPs(event.RSVPs),
	}

	winner, err := ResolveWinningDate(event.DateOptions, event.Votes)
	if err != nil {
		schedule.VotingOpen = true
		schedule.VotingMessage = "Voting is open"
		schedule.RSVPOpen = true
		schedule.RSVPMessage = "RSVP is open"
		return schedule
	}

	schedule.WinningDate = winner
	schedule.DateDecided = true
	schedule.Status = ClassifyStatus(winner, now)

	voting := VotingWindow(winner, now)
	schedule.VotingOpen = voting.Open
	schedule.VotingMessage = voting.Message

	rsvp := RSVPWindow(winner, now)
	schedule.RSVPOpen = rsvp.Open
	schedule.RSVPMessage = rsvp.Message

	return schedule
}

// checkVotingOpen rejects date-vote mutations once the voting window has
// closed. Events without a resolvable date fail open.
func (s *EventService) checkVotingOpen(event *model.Event) error {
	winner, err := ResolveWinningDate(event.DateOptions, event.Votes)
	if err != nil {
		// No date options means nothing to gate on
		return nil
	}
	if state := VotingWindow(winner, s.now()); !state.Open {
		return model.NewConflictError(state.Message)
	}
	return nil
}

// applyGuarded runs a read-modify-write loop against the event until the
// guarded update succeeds or attempts run out. change receives a fresh
// snapshot each attempt and returns the field updates to apply.
func (s *EventService) applyGuarded(ctx context.Context, user model.CurrentUser, id string, change func(*model.Event) (map[string]interface{}, error)) (*model.Event, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		event, err := s.visibleEvent(ctx, user, id)
		if err != nil {
			return nil, err
		}

		updates, err := change(event)
		if err != nil {
			return nil, err
		}

		updated, err := s.repo.UpdateGuarded(ctx, id, event.UpdatedAt, updates)
		if errors.Is(err, database.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}

		s.publishEvent(StreamEventUpdated, updated)
		return updated, nil
	}

	return nil, model.NewConflictError("event was modified concurrently, please retry")
}

// visibleEvent loads an event and enforces privacy
func (s *EventService) visibleEvent(ctx context.Context, user model.CurrentUser, id string) (*model.Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil || !event.VisibleTo(user) {
		return nil, model.NewNotFoundError("event not found")
	}
	return event, nil
}

func (s *EventService) publishEvent(streamType StreamType, event *model.Event) {
	if s.hub == nil || event == nil {
		return
	}
	s.hub.Publish(&StreamMessage{
		Type:    streamType,
		EventID: event.ID,
		Data:    event,
	})
}

func (s *EventService) notify(ctx context.Context, n *model.Notification) {
	if s.notifications == nil {
		return
	}
	created, err := s.notifications.Create(ctx, n)
	if err != nil {
		// Notification failures never fail the triggering operation
		return
	}
	if s.hub != nil {
		s.hub.SendToUser(created.UserID, &StreamMessage{
			Type: StreamNotification,
			Data: created,
		})
	}
}

func containsOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}

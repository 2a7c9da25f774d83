package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/service"
)

// EventSource lists the events to scan for approaching deadlines
type EventSource interface {
	List(ctx context.Context) ([]*model.Event, error)
}

// NotificationSink stores a notification and pushes it to the user's stream
type NotificationSink interface {
	Send(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

// NotificationChecker reports whether a user was already notified about
// an event. The scan runs repeatedly inside the warning window, so
// without this check users would be warned on every tick.
type NotificationChecker interface {
	ExistsForEvent(ctx context.Context, userID, eventID string, nType model.NotificationType) (bool, error)
}

// DeadlineNotifier warns hosts and attendees when an event's voting
// deadline falls inside the warning window.
type DeadlineNotifier struct {
	events   EventSource
	sink     NotificationSink
	checker  NotificationChecker
	window   time.Duration
	cronSpec string
	cron     *cron.Cron
	now      func() time.Time
	running  bool
	mu       sync.Mutex
}

// DeadlineNotifierConfig holds configuration for the deadline notifier
type DeadlineNotifierConfig struct {
	Events   EventSource
	Sink     NotificationSink
	Checker  NotificationChecker
	CronSpec string
	Window   time.Duration
}

// NewDeadlineNotifier creates a new deadline notifier job
func NewDeadlineNotifier(cfg DeadlineNotifierConfig) *DeadlineNotifier {
	spec := cfg.CronSpec
	if spec == "" {
		spec = "*/10 * * * *" // Default scan every ten minutes
	}
	window := cfg.Window
	if window == 0 {
		window = 24 * time.Hour
	}
	return &DeadlineNotifier{
		events:   cfg.Events,
		sink:     cfg.Sink,
		checker:  cfg.Checker,
		window:   window,
		cronSpec: spec,
		now:      time.Now,
	}
}

// Start schedules the deadline scan
func (d *DeadlineNotifier) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	d.cron = cron.New()
	_, err := d.cron.AddFunc(d.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := d.RunOnce(ctx); err != nil {
			slog.Error("deadline scan failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid deadline cron spec %q: %w", d.cronSpec, err)
	}

	d.cron.Start()
	d.running = true
	slog.Info("deadline notifier started",
		slog.String("cron", d.cronSpec),
		slog.Duration("window", d.window),
	)
	return nil
}

// Stop gracefully stops the deadline notifier and waits for an
// in-flight scan to finish
func (d *DeadlineNotifier) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	<-d.cron.Stop().Done()
	d.running = false
	slog.Info("deadline notifier stopped")
}

// IsRunning returns whether the notifier is scheduled
func (d *DeadlineNotifier) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// RunOnce scans all events once (also used for manual triggers)
func (d *DeadlineNotifier) RunOnce(ctx context.Context) error {
	events, err := d.events.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	now := d.now()
	notified := 0
	for _, event := range events {
		deadline, ok := votingDeadline(event)
		if !ok {
			continue
		}
		if !deadline.After(now) || deadline.Sub(now) > d.window {
			continue
		}
		n, err := d.notifyEvent(ctx, event, deadline)
		if err != nil {
			slog.Error("deadline notification failed",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		notified += n
	}

	if notified > 0 {
		slog.Info("deadline scan complete", slog.Int("notified", notified))
	}
	return nil
}

// notifyEvent warns the host and everyone with an RSVP, skipping users
// already warned about this event
func (d *DeadlineNotifier) notifyEvent(ctx context.Context, event *model.Event, deadline time.Time) (int, error) {
	recipients := []string{event.HostID}
	for _, rsvp := range event.RSVPs {
		if rsvp.UserID != event.HostID {
			recipients = append(recipients, rsvp.UserID)
		}
	}

	sent := 0
	for _, userID := range recipients {
		if userID == "" {
			continue
		}
		exists, err := d.checker.ExistsForEvent(ctx, userID, event.ID, model.NotificationVoteDeadline)
		if err != nil {
			return sent, err
		}
		if exists {
			continue
		}

		_, err = d.sink.Send(ctx, &model.Notification{
			UserID:    userID,
			Type:      model.NotificationVoteDeadline,
			Title:     "Voting closes soon",
			Message:   fmt.Sprintf("Voting for %s closes at %s", event.Name, deadline.Local().Format("Jan 2 15:04")),
			EventID:   event.ID,
			EventName: event.Name,
		})
		if err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// votingDeadline resolves the event's winning date and returns the
// moment voting closes. Events without a resolvable date are skipped.
func votingDeadline(event *model.Event) (time.Time, bool) {
	winner, err := service.ResolveWinningDate(event.DateOptions, event.Votes)
	if err != nil {
		return time.Time{}, false
	}
	start, ok := service.ParseEventDate(winner)
	if !ok {
		return time.Time{}, false
	}
	return start.Add(-time.Hour), true
}

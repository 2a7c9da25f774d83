package service

import (
	"fmt"
	"time"

	"github.com/plantogether/api/internal/model"
)

// Lead times before the winning date at which each window closes.
const (
	votingLeadTime = 1 * time.Hour
	rsvpLeadTime   = 6 * time.Hour
)

// Age thresholds for the coarse freshness indicator.
const (
	completedAfter = 30 * 24 * time.Hour
	activeAfter    = 7 * 24 * time.Hour
)

// eventDateLayouts are the accepted date-option formats, tried in order.
// Date options are free text, so parsing may fail entirely.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ResolveWinningDate returns the date option with the most votes.
// The scan updates the winner only on a strictly greater count, so ties
// favor the earliest listed option.
func ResolveWinningDate(dateOptions []string, votes model.VoteMap) (string, error) {
	if len(dateOptions) == 0 {
		return "", model.NewNoDateOptionsError()
	}

	winner := dateOptions[0]
	best := OptionVotes(votes, winner)
	for _, option := range dateOptions[1:] {
		if count := OptionVotes(votes, option); count > best {
			winner = option
			best = count
		}
	}
	return winner, nil
}

// ParseEventDate attempts to parse a date option string.
// Layouts without a zone are interpreted in local time. Date options are
// free text, so the boolean result stands in for an error.
func ParseEventDate(value string) (time.Time, bool) {
	for _, layout := range eventDateLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, value); err == nil {
				return t, true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClassifyStatus derives the event's temporal state from its winning date.
// The comparison is by calendar day in now's timezone, not exact timestamp.
// An unparseable date defaults to upcoming.
func ClassifyStatus(winningDate string, now time.Time) model.EventStatus {
	t, ok := ParseEventDate(winningDate)
	if !ok {
		return model.EventStatusUpcoming
	}

	eventDay := truncateToDay(t.In(now.Location()))
	today := truncateToDay(now)

	switch {
	case eventDay.Before(today):
		return model.EventStatusPast
	case eventDay.Equal(today):
		return model.EventStatusHappening
	default:
		return model.EventStatusUpcoming
	}
}

// ClassifyFreshness derives the coarse activity badge from event age.
// This is a separate view from ClassifyStatus and never gates mutations.
func ClassifyFreshness(createdAt time.Time, now time.Time) model.EventFreshness {
	age := now.Sub(createdAt)
	switch {
	case age > completedAfter:
		return model.EventFreshnessCompleted
	case age > activeAfter:
		return model.EventFreshnessActive
	default:
		return model.EventFreshnessUpcoming
	}
}

// WindowState reports whether a mutation window is open plus a
// human-readable countdown or closure message.
type WindowState struct {
	Open    bool
	Message string
	Urgent  bool
}

// VotingWindow reports whether voting is currently permitted.
// Voting closes one hour before the winning date.
func VotingWindow(winningDate string, now time.Time) WindowState {
	return windowState(winningDate, now, votingLeadTime, "Voting")
}

// RSVPWindow reports whether RSVP changes are currently permitted.
// RSVPs close six hours before the winning date.
func RSVPWindow(winningDate string, now time.Time) WindowState {
	return windowState(winningDate, now, rsvpLeadTime, "RSVP")
}

// windowState computes open/closed state against a deadline placed lead
// before the event start. Unparseable dates fail open so free-text date
// options never lock users out.
func windowState(winningDate string, now time.Time, lead time.Duration, label string) WindowState {
	start, ok := ParseEventDate(winningDate)
	if !ok {
		return WindowState{
			Open:    true,
			Message: label + " is open",
		}
	}

	deadline := start.Add(-lead)
	if !now.Before(deadline) {
		if now.After(start) {
			return WindowState{Message: label + " closed (event has passed)"}
		}
		return WindowState{Message: label + " closed (event starts soon)"}
	}

	remaining := deadline.Sub(now)
	days := int(remaining.Hours()) / 24
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes())

	switch {
	case days > 0:
		return WindowState{
			Open:    true,
			Message: fmt.Sprintf("%s closes in %d %s", label, days, plural(days, "day")),
		}
	case hours > 0:
		return WindowState{
			Open:    true,
			Message: fmt.Sprintf("%s closes in %d %s", label, hours, plural(hours, "hour")),
		}
	case minutes > 0:
		return WindowState{
			Open:    true,
			Urgent:  true,
			Message: fmt.Sprintf("Hurry! %s closes in %d %s", label, minutes, plural(minutes, "minute")),
		}
	default:
		return WindowState{
			Open:    true,
			Urgent:  true,
			Message: fmt.Sprintf("Hurry! %s closes in less than a minute", label),
		}
	}
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

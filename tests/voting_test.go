package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/repository"
	"github.com/plantogether/api/internal/service"
	"github.com/plantogether/api/internal/testing/fixtures"
	"github.com/plantogether/api/internal/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
FEATURE: Date Voting and RSVPs
DOMAIN: Event Scheduling

ACCEPTANCE CRITERIA:
===================

AC-VOTE-001: Cast Date Vote
  GIVEN an event with future date options
  WHEN a user votes for an option
  THEN the vote count increases
  AND the voter is recorded

AC-VOTE-002: Duplicate Vote Rejected
  GIVEN a user who already voted for an option
  WHEN the user votes for the same option again
  THEN the request fails with already voted error

AC-VOTE-003: Vote Removal
  GIVEN a user who voted for an option
  WHEN the user removes the vote
  THEN the count decreases and the voter is removed

AC-VOTE-004: Unknown Option Rejected
  GIVEN an event
  WHEN a user votes for an option that does not exist
  THEN the request fails

AC-VOTE-005: Item Votes
  GIVEN an event with items
  WHEN users vote for items
  THEN tallies reflect each item's votes

AC-VOTE-006: Vote Tally
  GIVEN votes across several options
  WHEN the tally is requested
  THEN counts and the leading option are reported

AC-VOTE-007: RSVP Last-Write-Wins
  GIVEN a user with an existing RSVP
  WHEN the user submits a new RSVP
  THEN the previous status is replaced

AC-VOTE-008: Winning Date Resolution
  GIVEN votes concentrated on one option
  WHEN the schedule is computed
  THEN that option wins
*/

func createEventService(t *testing.T, tdb *testdb.TestDB) *service.EventService {
	t.Helper()

	eventRepo := repository.NewEventRepository(tdb.DB)
	notificationRepo := repository.NewNotificationRepository(tdb.DB)

	return service.NewEventService(service.EventServiceConfig{
		EventRepo:        eventRepo,
		NotificationRepo: notificationRepo,
	})
}

func currentUser(u *model.User) model.CurrentUser {
	return model.CurrentUser{ID: u.ID, Name: u.Name, Role: u.Role}
}

func TestVoting_CastDateVote(t *testing.T) {
	// AC-VOTE-001: Cast Date Vote
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	voter := f.CreateUser(t)
	event := f.CreateEvent(t, host)

	option := event.DateOptions[0]
	updated, err := eventService.CastDateVote(ctx, currentUser(voter), event.ID, option)

	require.NoError(t, err)
	record := updated.Votes[option]
	assert.Equal(t, 1, record.Count)
	require.Len(t, record.Voters, 1)
	assert.Equal(t, voter.ID, record.Voters[0].ID)
}

func TestVoting_DuplicateVoteRejected(t *testing.T) {
	// AC-VOTE-002: Duplicate Vote Rejected
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	voter := f.CreateUser(t)
	event := f.CreateEvent(t, host)
	option := event.DateOptions[0]

	_, err := eventService.CastDateVote(ctx, currentUser(voter), event.ID, option)
	require.NoError(t, err)

	_, err = eventService.CastDateVote(ctx, currentUser(voter), event.ID, option)
	var problem *model.ProblemDetails
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, model.ErrCodeAlreadyVoted, problem.Code)
}

func TestVoting_VoteRemoval(t *testing.T) {
	// AC-VOTE-003: Vote Removal
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	voter := f.CreateUser(t)
	event := f.CreateEvent(t, host)
	option := event.DateOptions[0]

	_, err := eventService.CastDateVote(ctx, currentUser(voter), event.ID, option)
	require.NoError(t, err)

	updated, err := eventService.RemoveDateVote(ctx, currentUser(voter), event.ID, option)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Votes[option].Count)
	assert.Empty(t, updated.Votes[option].Voters)
}

func TestVoting_UnknownOptionRejected(t *testing.T) {
	// AC-VOTE-004: Unknown Option Rejected
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	voter := f.CreateUser(t)
	event := f.CreateEvent(t, host)

	_, err := eventService.CastDateVote(ctx, currentUser(voter), event.ID, "2031-01-01T00:00:00Z")
	assert.Error(t, err)
}

func TestVoting_ItemVotes(t *testing.T) {
	// AC-VOTE-005: Item Votes
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	alice := f.CreateUser(t)
	bob := f.CreateUser(t)
	event := f.CreateEvent(t, host)
	item := event.Items[0]

	_, err := eventService.CastItemVote(ctx, currentUser(alice), event.ID, item)
	require.NoError(t, err)

	updated, err := eventService.CastItemVote(ctx, currentUser(bob), event.ID, item)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ItemVotes[item].Count)
}

func TestVoting_Tally(t *testing.T) {
	// AC-VOTE-006: Vote Tally
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	alice := f.CreateUser(t)
	bob := f.CreateUser(t)
	event := f.CreateEvent(t, host)

	first := event.DateOptions[0]
	second := event.DateOptions[1]

	_, err := eventService.CastDateVote(ctx, currentUser(alice), event.ID, second)
	require.NoError(t, err)
	_, err = eventService.CastDateVote(ctx, currentUser(bob), event.ID, second)
	require.NoError(t, err)
	updated, err := eventService.CastDateVote(ctx, currentUser(host), event.ID, first)
	require.NoError(t, err)

	tally := service.Tally(updated.Votes)
	assert.Equal(t, 3, tally.Total)
	assert.Equal(t, 2, tally.Totals[second])
	assert.Equal(t, 1, tally.Totals[first])
}

func TestVoting_RSVPLastWriteWins(t *testing.T) {
	// AC-VOTE-007: RSVP Last-Write-Wins
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	guest := f.CreateUser(t)
	event := f.CreateEvent(t, host)

	_, err := eventService.SubmitRSVP(ctx, currentUser(guest), event.ID, &model.RSVPRequest{
		Status: string(model.RSVPStatusGoing),
	})
	require.NoError(t, err)

	updated, err := eventService.SubmitRSVP(ctx, currentUser(guest), event.ID, &model.RSVPRequest{
		Status: string(model.RSVPStatusNotGoing),
	})
	require.NoError(t, err)

	var guestRSVPs []model.RSVP
	for _, r := range updated.RSVPs {
		if r.UserID == guest.ID {
			guestRSVPs = append(guestRSVPs, r)
		}
	}
	require.Len(t, guestRSVPs, 1)
	assert.Equal(t, model.RSVPStatusNotGoing, guestRSVPs[0].Status)
}

func TestVoting_WinningDateResolution(t *testing.T) {
	// AC-VOTE-008: Winning Date Resolution
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	winning := time.Now().Add(96 * time.Hour).Format(time.RFC3339)
	other := time.Now().Add(48 * time.Hour).Format(time.RFC3339)

	host := f.CreateAdmin(t)
	alice := f.CreateUser(t)
	bob := f.CreateUser(t)
	event := f.CreateEvent(t, host, fixtures.WithDateOptions(other, winning))

	_, err := eventService.CastDateVote(ctx, currentUser(alice), event.ID, winning)
	require.NoError(t, err)
	_, err = eventService.CastDateVote(ctx, currentUser(bob), event.ID, winning)
	require.NoError(t, err)

	schedule, err := eventService.Schedule(ctx, currentUser(host), event.ID)
	require.NoError(t, err)
	assert.Equal(t, winning, schedule.WinningDate)
}

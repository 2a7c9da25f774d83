package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/plantogether/api/internal/model"
	"github.com/plantogether/api/internal/testing/fixtures"
	"github.com/plantogether/api/internal/testing/helpers"
	"github.com/plantogether/api/internal/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
FEATURE: Event Lifecycle
DOMAIN: Event Management

ACCEPTANCE CRITERIA:
===================

AC-EVT-001: Delete Cleans Up Notifications
  GIVEN an event with notifications referring to it
  WHEN the host deletes the event
  THEN the event and its notifications are removed together
  AND notifications for other events are untouched

AC-EVT-002: Only Host Or Admin Deletes
  GIVEN an event
  WHEN a user who is not the host attempts deletion
  THEN the request fails with a forbidden error
  AND the event still exists

AC-EVT-003: Admin Deletes Any Event
  GIVEN an event hosted by another user
  WHEN an admin deletes it
  THEN the event is removed
*/

func TestEvents_DeleteCleansUpNotifications(t *testing.T) {
	// AC-EVT-001: Delete Cleans Up Notifications
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	guest := f.CreateUser(t)
	event := f.CreateEvent(t, host)
	other := f.CreateEvent(t, host)

	doomed := f.CreateNotification(t, guest, model.NotificationEventCreated, event.ID)
	kept := f.CreateNotification(t, guest, model.NotificationEventCreated, other.ID)

	require.NoError(t, eventService.Delete(ctx, currentUser(host), event.ID))

	helpers.AssertRecordNotExists(t, tdb.DB, "event", event.ID)
	helpers.AssertRecordNotExists(t, tdb.DB, "notification", doomed.ID)
	helpers.AssertRecordExists(t, tdb.DB, "event", other.ID)
	helpers.AssertRecordExists(t, tdb.DB, "notification", kept.ID)
}

func TestEvents_OnlyHostOrAdminDeletes(t *testing.T) {
	// AC-EVT-002: Only Host Or Admin Deletes
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	stranger := f.CreateUser(t)
	event := f.CreateEvent(t, host)

	err := eventService.Delete(ctx, currentUser(stranger), event.ID)

	var problem *model.ProblemDetails
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, model.ErrCodeForbidden, problem.Code)
	helpers.AssertRecordExists(t, tdb.DB, "event", event.ID)
}

func TestEvents_AdminDeletesAnyEvent(t *testing.T) {
	// AC-EVT-003: Admin Deletes Any Event
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	eventService := createEventService(t, tdb)
	ctx := context.Background()

	host := f.CreateAdmin(t)
	admin := f.CreateAdmin(t)
	event := f.CreateEvent(t, host)

	require.NoError(t, eventService.Delete(ctx, currentUser(admin), event.ID))
	helpers.AssertRecordNotExists(t, tdb.DB, "event", event.ID)
}

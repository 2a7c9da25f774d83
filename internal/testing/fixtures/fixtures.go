// Package fixtures provides test data factories for e2e testing.
//
// Each factory method creates entities with sensible defaults while allowing
// customization via option functions. Factories handle database insertion
// and return fully populated models.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	user := f.CreateUser(t)
//	event := f.CreateEvent(t, user)
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/model"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ctx returns a context with timeout
func ctx() context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	// Store cancel to prevent leak warning
	_ = cancel
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Name     string
	Email    string
	Password string
	Role     model.UserRole
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Name:     fmt.Sprintf("User %s", randomID()),
		Email:    fmt.Sprintf("user_%s@test.local", randomID()),
		Password: "testpass123",
		Role:     model.UserRoleUser,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	query := `
		CREATE user CONTENT {
			name: $name,
			email: $email,
			hash: $hash,
			role: $role,
			createdAt: time::now(),
			updatedAt: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":  o.Name,
		"email": o.Email,
		"hash":  string(hash),
		"role":  string(o.Role),
	}

	results, err := f.db.Query(ctx(), query, vars)
	if err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	data := extractFirstResult(t, results)
	user := &model.User{
		ID:        getString(data, "id"),
		Name:      getString(data, "name"),
		Email:     getString(data, "email"),
		Role:      model.UserRole(getString(data, "role")),
		CreatedAt: getTime(data, "createdAt"),
		UpdatedAt: getTime(data, "updatedAt"),
	}
	return user
}

// CreateAdmin creates an admin user
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleAdmin
	})
}

// ============================================================================
// Event Fixtures
// ============================================================================

// EventOpts customizes event creation
type EventOpts struct {
	Name        string
	Description string
	Location    string
	DateOptions []string
	Items       []string
	Privacy     model.EventPrivacy
	Category    model.EventCategory
	ShareToken  string
}

// WithEventPrivacy sets event privacy
func WithEventPrivacy(privacy model.EventPrivacy) func(*EventOpts) {
	return func(o *EventOpts) {
		o.Privacy = privacy
	}
}

// WithDateOptions sets the candidate dates
func WithDateOptions(options ...string) func(*EventOpts) {
	return func(o *EventOpts) {
		o.DateOptions = options
	}
}

// CreateEvent creates an event hosted by the given user
func (f *Factory) CreateEvent(t *testing.T, host *model.User, opts ...func(*EventOpts)) *model.Event {
	t.Helper()

	o := &EventOpts{
		Name:        fmt.Sprintf("Event %s", randomID()),
		Description: "Test event description",
		Location:    "Test venue",
		DateOptions: []string{
			time.Now().Add(48 * time.Hour).Format(time.RFC3339),
			time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		},
		Items:      []string{"Snacks", "Drinks"},
		Privacy:    model.EventPrivacyPublic,
		Category:   model.EventCategorySocial,
		ShareToken: uuid.NewString(),
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE event SET
			name = $name,
			description = $description,
			location = $location,
			dateOptions = $date_options,
			votes = {},
			items = $items,
			itemVotes = {},
			comments = [],
			rsvps = [],
			hostId = $host_id,
			hostName = $host_name,
			privacy = $privacy,
			category = $category,
			shareToken = $share_token,
			createdAt = time::now(),
			updatedAt = time::now()
	`
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"name":         o.Name,
		"description":  o.Description,
		"location":     o.Location,
		"date_options": o.DateOptions,
		"items":        o.Items,
		"host_id":      host.ID,
		"host_name":    host.Name,
		"privacy":      string(o.Privacy),
		"category":     string(o.Category),
		"share_token":  o.ShareToken,
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create event: %v", err)
	}

	data := extractFirstResult(t, results)
	return &model.Event{
		ID:          getString(data, "id"),
		Name:        getString(data, "name"),
		Description: getString(data, "description"),
		Location:    getString(data, "location"),
		DateOptions: o.DateOptions,
		Items:       o.Items,
		HostID:      host.ID,
		HostName:    host.Name,
		Privacy:     model.EventPrivacy(getString(data, "privacy")),
		Category:    model.EventCategory(getString(data, "category")),
		ShareToken:  getString(data, "shareToken"),
		CreatedAt:   getTime(data, "createdAt"),
		UpdatedAt:   getTime(data, "updatedAt"),
	}
}

// CreatePrivateEvent creates a private event
func (f *Factory) CreatePrivateEvent(t *testing.T, host *model.User) *model.Event {
	return f.CreateEvent(t, host, WithEventPrivacy(model.EventPrivacyPrivate))
}

// CastDateVote records a date vote directly in the store
func (f *Factory) CastDateVote(t *testing.T, event *model.Event, voter *model.User, option string) {
	t.Helper()

	query := `
		UPDATE type::record($event_id) SET
			votes[$option].count += 1,
			votes[$option].voters += [{ id: $voter_id, name: $voter_name }],
			updatedAt = time::now()
	`
	if err := f.db.Execute(ctx(), query, map[string]interface{}{
		"event_id":   event.ID,
		"option":     option,
		"voter_id":   voter.ID,
		"voter_name": voter.Name,
	}); err != nil {
		t.Fatalf("fixtures: failed to cast date vote: %v", err)
	}
}

// CreateRSVP records an RSVP directly in the store
func (f *Factory) CreateRSVP(t *testing.T, event *model.Event, user *model.User, status model.RSVPStatus) {
	t.Helper()

	query := `
		UPDATE type::record($event_id) SET
			rsvps += [{
				userId: $user_id,
				name: $name,
				status: $status,
				timestamp: time::now()
			}],
			updatedAt = time::now()
	`
	if err := f.db.Execute(ctx(), query, map[string]interface{}{
		"event_id": event.ID,
		"user_id":  user.ID,
		"name":     user.Name,
		"status":   string(status),
	}); err != nil {
		t.Fatalf("fixtures: failed to create RSVP: %v", err)
	}
}

// ============================================================================
// Notification Fixtures
// ============================================================================

// CreateNotification creates a notification for a user
func (f *Factory) CreateNotification(t *testing.T, user *model.User, nType model.NotificationType, eventID string) *model.Notification {
	t.Helper()

	query := `
		CREATE notification CONTENT {
			userId: $user_id,
			type: $type,
			eventId: $event_id,
			title: $title,
			message: $message,
			read: false,
			createdAt: time::now()
		}
	`
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"user_id":  user.ID,
		"type":     string(nType),
		"event_id": eventID,
		"title":    "Test notification",
		"message":  "Test notification message",
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create notification: %v", err)
	}

	data := extractFirstResult(t, results)
	return &model.Notification{
		ID:      getString(data, "id"),
		UserID:  user.ID,
		Type:    nType,
		EventID: eventID,
	}
}

// ============================================================================
// Data Extraction Helpers
// ============================================================================

// extractFirstResult returns the first record of the first statement's
// payload. Query yields one payload per statement, usually a record list.
func extractFirstResult(t *testing.T, payloads []interface{}) map[string]interface{} {
	t.Helper()
	if len(payloads) == 0 {
		t.Fatal("fixtures: no results returned")
	}

	first := payloads[0]
	if arr, ok := first.([]interface{}); ok {
		if len(arr) == 0 {
			t.Fatal("fixtures: empty result")
		}
		first = arr[0]
	}

	data, ok := first.(map[string]interface{})
	if !ok {
		t.Fatalf("fixtures: unexpected result type: %T", first)
	}
	return data
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	// Handle SurrealDB record ID type - could be a struct or map
	if v := data[key]; v != nil {
		// Try to get the ID as a map with "tb" (table) and "id" fields
		if m, ok := v.(map[string]interface{}); ok {
			if tb, ok := m["tb"].(string); ok {
				if id := m["id"]; id != nil {
					return fmt.Sprintf("%s:%v", tb, id)
				}
			}
		}
		// Fallback: use string conversion but fix the format if needed
		s := fmt.Sprintf("%v", v)
		// Convert "{table id}" to "table:id"
		if len(s) > 2 && s[0] == '{' && s[len(s)-1] == '}' {
			inner := s[1 : len(s)-1]
			for i, c := range inner {
				if c == ' ' {
					return inner[:i] + ":" + inner[i+1:]
				}
			}
		}
		return s
	}
	return ""
}

func getTime(data map[string]interface{}, key string) time.Time {
	switch v := data[key].(type) {
	case string:
		t, _ := time.Parse(time.RFC3339Nano, v)
		return t
	case time.Time:
		return v
	}
	return time.Time{}
}

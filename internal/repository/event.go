package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/model"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// EventRepository handles event persistence
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

// Create persists a new event and returns it with store-assigned fields
func (r *EventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `CREATE event SET
		name = $name,
		description = $description,
		location = $location,
		dateOptions = $date_options,
		votes = $votes,
		items = $items,
		itemVotes = $item_votes,
		comments = [],
		rsvps = [],
		hostId = $host_id,
		hostName = $host_name,
		privacy = $privacy,
		category = $category,
		shareToken = $share_token,
		createdAt = time::now(),
		updatedAt = time::now()
	RETURN AFTER`

	params := map[string]interface{}{
		"name":         event.Name,
		"description":  event.Description,
		"location":     event.Location,
		"date_options": sliceParam(event.DateOptions),
		"votes":        toPlain(event.Votes),
		"items":        sliceParam(event.Items),
		"item_votes":   toPlain(event.ItemVotes),
		"host_id":      event.HostID,
		"host_name":    event.HostName,
		"privacy":      string(event.Privacy),
		"category":     string(event.Category),
		"share_token":  event.ShareToken,
	}

	result, err := r.db.QueryOne(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return parseEventResult(result)
}

// Get retrieves an event by its record ID.
// Returns (nil, nil) if the event does not exist.
func (r *EventRepository) Get(ctx context.Context, id string) (*model.Event, error) {
	query := `SELECT * FROM type::record($event_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"event_id": id,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return parseEventResult(result)
}

// GetByShareToken retrieves an event by its share link token.
// Returns (nil, nil) if no event carries the token.
func (r *EventRepository) GetByShareToken(ctx context.Context, token string) (*model.Event, error) {
	query := `SELECT * FROM event WHERE shareToken = $token LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"token": token,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event by share token: %w", err)
	}

	return parseEventResult(result)
}

// List retrieves all events, newest first
func (r *EventRepository) List(ctx context.Context) ([]*model.Event, error) {
	query := `SELECT * FROM event ORDER BY createdAt DESC`
	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return parseEventsResult(result)
}

// Update applies the given field updates to an event and returns the new state.
// Keys are store field names and must come from calling code, never user input.
func (r *EventRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Event, error) {
	setParts, params := buildSetClause(updates)
	params["event_id"] = id

	query := fmt.Sprintf(`UPDATE type::record($event_id) SET %s RETURN AFTER`,
		strings.Join(setParts, ", "))

	result, err := r.db.QueryOne(ctx, query, params)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return parseEventResult(result)
}

// UpdateGuarded applies updates only if the event's updatedAt still matches
// the value the caller read. Returns database.ErrConflict when the guard
// fails, so the caller can re-read and retry.
func (r *EventRepository) UpdateGuarded(ctx context.Context, id string, expected time.Time, updates map[string]interface{}) (*model.Event, error) {
	setParts, params := buildSetClause(updates)
	params["event_id"] = id
	params["expected"] = models.CustomDateTime{Time: expected}

	query := fmt.Sprintf(`UPDATE type::record($event_id) SET %s WHERE updatedAt = $expected RETURN AFTER`,
		strings.Join(setParts, ", "))

	result, err := r.db.QueryOne(ctx, query, params)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, database.ErrConflict
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return parseEventResult(result)
}

// Delete removes an event together with its notifications. Both deletes
// run in one transaction so a notification never outlives its event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	batch := database.NewBatch().
		Add(`DELETE type::record($event_id)`, map[string]interface{}{
			"event_id": id,
		}).
		Add(`DELETE notification WHERE eventId = $event_id`, map[string]interface{}{
			"event_id": id,
		})

	if err := batch.Run(ctx, r.db); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// buildSetClause produces SET fragments and params for an update query.
// Field ordering is made deterministic for query logging.
func buildSetClause(updates map[string]interface{}) ([]string, map[string]interface{}) {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	setParts := []string{"updatedAt = time::now()"}
	params := map[string]interface{}{}
	for i, key := range keys {
		param := fmt.Sprintf("p%d", i)
		setParts = append(setParts, fmt.Sprintf("%s = $%s", key, param))
		params[param] = toPlain(updates[key])
	}
	return setParts, params
}

// toPlain converts a typed value into plain JSON-shaped data so the driver
// stores maps and slices rather than opaque structs
func toPlain(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return v
	}
	if out == nil {
		return map[string]interface{}{}
	}
	return out
}

// sliceParam guarantees a non-nil slice so the store records [] instead of NONE
func sliceParam(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// parseEventResult converts a single SurrealDB result into an Event
func parseEventResult(result interface{}) (*model.Event, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}
	return parseEventData(data)
}

// parseEventsResult converts Query payloads into Events
func parseEventsResult(payloads []interface{}) ([]*model.Event, error) {
	records := recordList(payloads)
	events := make([]*model.Event, 0, len(records))
	for _, data := range records {
		event, err := parseEventData(data)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// parseEventData builds an Event from a raw record map
func parseEventData(data map[string]interface{}) (*model.Event, error) {
	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if hostID, ok := data["hostId"]; ok {
		data["hostId"] = convertSurrealID(hostID)
	}
	normalizeTimes(data, "createdAt", "updatedAt")
	normalizeNestedTimes(data, "comments")
	normalizeNestedTimes(data, "rsvps")

	var event model.Event
	if err := decodeRecord(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	return &event, nil
}

// normalizeNestedTimes rewrites timestamp fields inside a list of record maps
func normalizeNestedTimes(data map[string]interface{}, key string) {
	items, ok := data[key].([]interface{})
	if !ok {
		return
	}
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			normalizeTimes(m, "timestamp")
		}
	}
}

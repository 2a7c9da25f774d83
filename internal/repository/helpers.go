package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plantogether/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// isUniqueConstraintError checks if an error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already exists")
}

// createdRecord carries the fields assigned by the store at creation
type createdRecord struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// extractCreatedRecord pulls the id and timestamps out of a CREATE
// statement's payloads
func extractCreatedRecord(payloads []interface{}) (*createdRecord, error) {
	records := recordList(payloads)
	if len(records) == 0 {
		return nil, errors.New("no record returned")
	}
	data := records[0]

	record := &createdRecord{}
	if id, ok := data["id"]; ok {
		record.ID = convertSurrealID(id)
	}
	if t := getTime(data, "createdAt"); t != nil {
		record.CreatedAt = *t
	}
	if t := getTime(data, "updatedAt"); t != nil {
		record.UpdatedAt = *t
	}
	return record, nil
}

// recordList flattens Query payloads into the record maps they carry.
// Each payload is one statement's result, usually a list of records.
func recordList(payloads []interface{}) []map[string]interface{} {
	var records []map[string]interface{}
	for _, payload := range payloads {
		switch v := payload.(type) {
		case []interface{}:
			for _, item := range v {
				if data, ok := item.(map[string]interface{}); ok {
					records = append(records, data)
				}
			}
		case map[string]interface{}:
			records = append(records, v)
		}
	}
	return records
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	// Already a string
	if str, ok := id.(string); ok {
		return str
	}

	// Handle models.RecordID from SurrealDB Go client
	if rid, ok := id.(models.RecordID); ok {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}
	if rid, ok := id.(*models.RecordID); ok && rid != nil {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}

	// Handle map format: {"tb": "event", "id": {"String": "demo"}} or similar
	if m, ok := id.(map[string]interface{}); ok {
		tb := ""
		idPart := ""

		if t, ok := m["tb"].(string); ok {
			tb = t
		} else if t, ok := m["TB"].(string); ok {
			tb = t
		} else if t, ok := m["Table"].(string); ok {
			tb = t
		}

		if idVal, ok := m["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := m["ID"]; ok {
			idPart = extractIDValue(idVal)
		}

		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}

	// Fallback: use fmt.Sprintf
	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
		if s, ok := m["string"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// unwrapRecord normalizes a QueryOne result into a record map, or
// returns ErrNotFound when no record is present
func unwrapRecord(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	// QueryOne already unwraps statement lists, but a record can still
	// arrive inside a single-element list from raw Query callers
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result format %T", result)
	}
	return data, nil
}

// decodeRecord converts a record map into a typed struct through JSON.
// Timestamp and record-id fields should be normalized on the map first.
func decodeRecord(data map[string]interface{}, out interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, out)
}

// normalizeTimes rewrites known timestamp fields to RFC3339 strings so a
// JSON round trip preserves them regardless of driver result type.
func normalizeTimes(data map[string]interface{}, keys ...string) {
	for _, key := range keys {
		if t := getTime(data, key); t != nil {
			data[key] = t.Format(time.RFC3339Nano)
		} else {
			delete(data, key)
		}
	}
}

// extractCount reads the count field from a count query's record
func extractCount(result interface{}) int {
	data, err := unwrapRecord(result)
	if err != nil {
		return 0
	}
	return extractCountValue(data["count"])
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	if v, ok := m[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	}
	if t, ok := m[key].(time.Time); ok {
		return &t
	}
	// Handle SurrealDB CustomDateTime type
	if dt, ok := m[key].(models.CustomDateTime); ok {
		t := dt.Time
		return &t
	}
	if dt, ok := m[key].(*models.CustomDateTime); ok && dt != nil {
		t := dt.Time
		return &t
	}
	return nil
}

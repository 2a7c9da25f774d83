package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Error() Interface Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "Event not found",
	}

	errMsg := pd.Error()

	if !strings.Contains(errMsg, "404") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "Not Found") {
		t.Errorf("error message should contain title, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "Event not found") {
		t.Errorf("error message should contain detail, got: %s", errMsg)
	}
}

func TestProblemDetails_Error_EmptyDetail(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusUnauthorized,
		Title:  "Unauthorized",
		Detail: "",
	}

	errMsg := pd.Error()

	// Should still produce valid error string
	if !strings.Contains(errMsg, "401") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
}

// ============================================================================
// WriteJSON Tests
// ============================================================================

func TestProblemDetails_WriteJSON_SetsContentType(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("resource")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	contentType := rr.Header().Get("Content-Type")
	if contentType != "application/problem+json" {
		t.Errorf("expected Content-Type 'application/problem+json', got %q", contentType)
	}
}

func TestProblemDetails_WriteJSON_SetsStatusCode(t *testing.T) {
	t.Parallel()

	pd := NewForbiddenError("access denied")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestProblemDetails_WriteJSON_EncodesBody(t *testing.T) {
	t.Parallel()

	pd := NewBadRequestError("invalid input")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	var decoded ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if decoded.Detail != "invalid input" {
		t.Errorf("expected detail 'invalid input', got %q", decoded.Detail)
	}
}

// ============================================================================
// Constructor Tests - Authorization
// ============================================================================

func TestNewUnauthorizedError_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	pd := NewUnauthorizedError("token expired")

	if pd.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", pd.Status)
	}
	if pd.Code != ErrCodeUnauthorized {
		t.Errorf("expected code %d, got %d", ErrCodeUnauthorized, pd.Code)
	}
	if pd.Detail != "token expired" {
		t.Errorf("expected detail 'token expired', got %q", pd.Detail)
	}
}

func TestNewForbiddenError_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	pd := NewForbiddenError("admin role required")

	if pd.Status != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", pd.Status)
	}
	if pd.Code != ErrCodeForbidden {
		t.Errorf("expected code %d, got %d", ErrCodeForbidden, pd.Code)
	}
}

// ============================================================================
// Constructor Tests - Resources
// ============================================================================

func TestNewNotFoundError_FormatsResourceName(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("event")

	if pd.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", pd.Status)
	}
	if pd.Detail != "event not found" {
		t.Errorf("expected detail 'event not found', got %q", pd.Detail)
	}
}

func TestNewConflictError_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	pd := NewConflictError("email already in use")

	if pd.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", pd.Status)
	}
	if pd.Code != ErrCodeConflict {
		t.Errorf("expected code %d, got %d", ErrCodeConflict, pd.Code)
	}
}

// ============================================================================
// Constructor Tests - Voting
// ============================================================================

func TestNewAlreadyVotedError_ReturnsConflict(t *testing.T) {
	t.Parallel()

	pd := NewAlreadyVotedError("2026-01-15")

	if pd.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", pd.Status)
	}
	if pd.Code != ErrCodeAlreadyVoted {
		t.Errorf("expected code %d, got %d", ErrCodeAlreadyVoted, pd.Code)
	}
	if !strings.Contains(pd.Detail, "2026-01-15") {
		t.Errorf("detail should name the option, got %q", pd.Detail)
	}
}

func TestNewNotVotedError_ReturnsConflict(t *testing.T) {
	t.Parallel()

	pd := NewNotVotedError("2026-01-15")

	if pd.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", pd.Status)
	}
	if pd.Code != ErrCodeNotVoted {
		t.Errorf("expected code %d, got %d", ErrCodeNotVoted, pd.Code)
	}
}

// ============================================================================
// Constructor Tests - Dates
// ============================================================================

func TestNewInvalidDateError_NamesOption(t *testing.T) {
	t.Parallel()

	pd := NewInvalidDateError("whenever works")

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", pd.Status)
	}
	if pd.Code != ErrCodeInvalidDate {
		t.Errorf("expected code %d, got %d", ErrCodeInvalidDate, pd.Code)
	}
	if !strings.Contains(pd.Detail, "whenever works") {
		t.Errorf("detail should name the option, got %q", pd.Detail)
	}
}

func TestNewNoDateOptionsError_ReturnsUnprocessable(t *testing.T) {
	t.Parallel()

	pd := NewNoDateOptionsError()

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", pd.Status)
	}
	if pd.Code != ErrCodeNoDateOptions {
		t.Errorf("expected code %d, got %d", ErrCodeNoDateOptions, pd.Code)
	}
}

// ============================================================================
// Constructor Tests - Validation
// ============================================================================

func TestNewValidationError_SingleField_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	errors := []FieldError{{Field: "name", Message: "name is required"}}
	pd := NewValidationError(errors)

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", pd.Status)
	}
	if !strings.Contains(pd.Detail, "name") {
		t.Errorf("detail should mention the failing field, got %q", pd.Detail)
	}
	if len(pd.Errors) != 1 {
		t.Errorf("expected 1 field error, got %d", len(pd.Errors))
	}
}

func TestNewValidationError_MultipleFields_SummarizesCount(t *testing.T) {
	t.Parallel()

	errors := []FieldError{
		{Field: "name", Message: "name is required"},
		{Field: "privacy", Message: "privacy must be 'public' or 'private'"},
	}
	pd := NewValidationError(errors)

	if !strings.Contains(pd.Detail, "1 more") {
		t.Errorf("detail should summarize additional errors, got %q", pd.Detail)
	}
}

func TestNewValidationError_EmptyErrors_ReturnsDefaultMessage(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{})

	if pd.Detail == "" {
		t.Error("expected non-empty default detail")
	}
}

// ============================================================================
// Constructor Tests - Internal
// ============================================================================

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	pd := NewInternalError("")

	if pd.Detail == "" {
		t.Error("expected default detail for empty input")
	}
	if pd.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", pd.Status)
	}
}

// ============================================================================
// Error Code Constants Tests
// ============================================================================

func TestErrorCodes_UniqueValues(t *testing.T) {
	t.Parallel()

	codes := map[ErrorCode]string{
		ErrCodeUnauthorized:  "ErrCodeUnauthorized",
		ErrCodeTokenExpired:  "ErrCodeTokenExpired",
		ErrCodeTokenInvalid:  "ErrCodeTokenInvalid",
		ErrCodeLoginFailed:   "ErrCodeLoginFailed",
		ErrCodeForbidden:     "ErrCodeForbidden",
		ErrCodeNotFound:      "ErrCodeNotFound",
		ErrCodeAlreadyExists: "ErrCodeAlreadyExists",
		ErrCodeConflict:      "ErrCodeConflict",
		ErrCodeAlreadyVoted:  "ErrCodeAlreadyVoted",
		ErrCodeNotVoted:      "ErrCodeNotVoted",
		ErrCodeValidation:    "ErrCodeValidation",
		ErrCodeInvalidInput:  "ErrCodeInvalidInput",
		ErrCodeInvalidDate:   "ErrCodeInvalidDate",
		ErrCodeNoDateOptions: "ErrCodeNoDateOptions",
		ErrCodeInternal:      "ErrCodeInternal",
		ErrCodeDatabase:      "ErrCodeDatabase",
	}

	seen := make(map[ErrorCode]string)
	for code, name := range codes {
		if existing, exists := seen[code]; exists {
			t.Errorf("duplicate error code: %s and %s both have value %d", existing, name, code)
		}
		seen[code] = name
	}
}

func TestErrorCodes_CorrectRanges(t *testing.T) {
	t.Parallel()

	// Authentication errors should be 1xxx
	authCodes := []ErrorCode{ErrCodeUnauthorized, ErrCodeTokenExpired, ErrCodeTokenInvalid, ErrCodeLoginFailed}
	for _, code := range authCodes {
		if code < 1000 || code >= 2000 {
			t.Errorf("auth error code %d should be in 1xxx range", code)
		}
	}

	// Resource errors should be 3xxx
	resourceCodes := []ErrorCode{ErrCodeNotFound, ErrCodeAlreadyExists, ErrCodeConflict, ErrCodeAlreadyVoted, ErrCodeNotVoted}
	for _, code := range resourceCodes {
		if code < 3000 || code >= 4000 {
			t.Errorf("resource error code %d should be in 3xxx range", code)
		}
	}

	// Validation errors should be 4xxx
	validationCodes := []ErrorCode{ErrCodeValidation, ErrCodeInvalidInput, ErrCodeInvalidDate, ErrCodeNoDateOptions}
	for _, code := range validationCodes {
		if code < 4000 || code >= 5000 {
			t.Errorf("validation error code %d should be in 4xxx range", code)
		}
	}

	// Internal errors should be 5xxx
	internalCodes := []ErrorCode{ErrCodeInternal, ErrCodeDatabase}
	for _, code := range internalCodes {
		if code < 5000 || code >= 6000 {
			t.Errorf("internal error code %d should be in 5xxx range", code)
		}
	}
}

// ============================================================================
// JSON Serialization Tests
// ============================================================================

func TestProblemDetails_JSON_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Type:   "test",
		Title:  "Test",
		Status: 400,
		// Detail, Instance, Errors are empty
	}

	data, err := json.Marshal(pd)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	if strings.Contains(jsonStr, "detail") {
		t.Error("empty detail should be omitted from JSON")
	}
	if strings.Contains(jsonStr, "instance") {
		t.Error("empty instance should be omitted from JSON")
	}
	if strings.Contains(jsonStr, "errors") {
		t.Error("empty errors should be omitted from JSON")
	}
}

func TestProblemDetails_JSON_IncludesAllFields(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Type:     "test-type",
		Title:    "Test Title",
		Status:   422,
		Detail:   "Test detail",
		Instance: "/api/test",
		Errors:   []FieldError{{Field: "name", Message: "required"}},
		Code:     ErrCodeValidation,
	}

	data, err := json.Marshal(pd)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	expectedFields := []string{"type", "title", "status", "detail", "instance", "errors", "code"}
	for _, field := range expectedFields {
		if _, ok := result[field]; !ok {
			t.Errorf("expected field %q in JSON output", field)
		}
	}
}

package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003
	ErrCodeLoginFailed  ErrorCode = 1004

	// Authorization errors (2xxx)
	ErrCodeForbidden ErrorCode = 2001

	// Resource errors (3xxx)
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003
	ErrCodeAlreadyVoted  ErrorCode = 3004
	ErrCodeNotVoted      ErrorCode = 3005

	// Validation errors (4xxx)
	ErrCodeValidation    ErrorCode = 4001
	ErrCodeInvalidInput  ErrorCode = 4002
	ErrCodeInvalidDate   ErrorCode = 4003
	ErrCodeNoDateOptions ErrorCode = 4004

	// Internal errors (5xxx)
	ErrCodeInternal ErrorCode = 5001
	ErrCodeDatabase ErrorCode = 5002

	// Throttling errors (6xxx)
	ErrCodeRateLimited ErrorCode = 6001
)

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code ErrorCode `json:"code,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Common error constructors

func NewUnauthorizedError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/unauthorized",
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Detail: detail,
		Code:   ErrCodeUnauthorized,
	}
}

func NewForbiddenError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/forbidden",
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Detail: detail,
		Code:   ErrCodeForbidden,
	}
}

func NewNotFoundError(resource string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/not-found",
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("%s not found", resource),
		Code:   ErrCodeNotFound,
	}
}

func NewValidationError(errors []FieldError) *ProblemDetails {
	// Build detailed message from field errors
	detail := "One or more fields failed validation"
	if len(errors) > 0 {
		detail = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errors)-1)
		}
	}
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/validation",
		Title:  "Validation Error",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
		Code:   ErrCodeValidation,
		Errors: errors,
	}
}

func NewConflictError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/conflict",
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: detail,
		Code:   ErrCodeConflict,
	}
}

// NewAlreadyVotedError signals a repeated vote for the same option by the same user.
func NewAlreadyVotedError(option string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/already-voted",
		Title:  "Already Voted",
		Status: http.StatusConflict,
		Detail: fmt.Sprintf("You have already voted for %q", option),
		Code:   ErrCodeAlreadyVoted,
	}
}

// NewNotVotedError signals removal of a vote the user never cast.
func NewNotVotedError(option string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/not-voted",
		Title:  "Not Voted",
		Status: http.StatusConflict,
		Detail: fmt.Sprintf("You have not voted for %q", option),
		Code:   ErrCodeNotVoted,
	}
}

// NewInvalidDateError signals a date option that does not parse as a calendar date.
func NewInvalidDateError(option string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/invalid-date",
		Title:  "Invalid Date",
		Status: http.StatusUnprocessableEntity,
		Detail: fmt.Sprintf("Date option %q is not a valid date", option),
		Code:   ErrCodeInvalidDate,
	}
}

// NewNoDateOptionsError signals an event whose date has not been proposed yet.
func NewNoDateOptionsError() *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/no-date-options",
		Title:  "No Date Options",
		Status: http.StatusUnprocessableEntity,
		Detail: "Event has no date options; the date is not yet decided",
		Code:   ErrCodeNoDateOptions,
	}
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/internal",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
		Code:   ErrCodeInternal,
	}
}

func NewBadRequestError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/bad-request",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
		Code:   ErrCodeInvalidInput,
	}
}

// NewRateLimitError signals that the caller exhausted its request budget.
func NewRateLimitError(retryAfterSeconds int) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/rate-limited",
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: fmt.Sprintf("Request limit reached; retry in %d seconds", retryAfterSeconds),
		Code:   ErrCodeRateLimited,
	}
}

func NewMethodNotAllowedError(allowed string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://api.plantogether.app/errors/method-not-allowed",
		Title:  "Method Not Allowed",
		Status: http.StatusMethodNotAllowed,
		Detail: fmt.Sprintf("Only %s method is allowed", allowed),
	}
}

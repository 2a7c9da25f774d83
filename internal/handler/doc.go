// Package handler provides HTTP request handlers for the PlanTogether API.
//
// The handler package contains all HTTP endpoint implementations organized by domain.
// Each handler struct encapsulates the dependencies needed to serve requests for a
// specific feature area (authentication, events, notifications, etc.).
//
// # Handler Pattern
//
// All handlers follow a consistent pattern:
//
//   - Constructor function (NewXxxHandler) accepts a config struct with dependencies
//   - Methods handle specific HTTP endpoints
//   - Response helpers from response.go standardize output format
//   - Errors are mapped to RFC 9457 Problem Details responses
//
// # Response Format
//
// Handlers use standardized response functions:
//
//   - WriteData: Single resource with optional HATEOAS links
//   - WriteCollection: Paginated list of resources
//   - WriteJSON: Raw JSON response
//   - WriteError: RFC 9457 Problem Details error response
//
// # Authentication
//
// Most handlers require authentication via JWT tokens. The auth middleware
// resolves the caller and makes it available via middleware.GetCurrentUser.
//
// # Example Usage
//
//	handler := NewEventHandler(EventHandlerConfig{
//	    EventService:    eventService,
//	    CalendarService: calendarService,
//	})
//	mux.HandleFunc("GET /v1/events", handler.ListEvents)
//	mux.HandleFunc("POST /v1/events", handler.CreateEvent)
package handler

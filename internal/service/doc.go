// Package service implements the business logic layer for the PlanTogether API.
//
// The service package contains all domain logic, validation rules, and
// orchestration of repository operations. Services are the primary
// abstraction between HTTP handlers and data access.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or *model.ProblemDetails for domain errors
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces, allowing:
//
//   - Easy mocking for unit tests
//   - Decoupling from specific database implementations
//   - Clear contracts for data access requirements
//
// # Error Handling
//
// Auth and token services return sentinel errors defined as package-level
// variables:
//
//	var (
//	    ErrInvalidCredentials  = errors.New("invalid credentials")
//	    ErrRefreshTokenExpired = errors.New("refresh token expired")
//	)
//
// Event operations return *model.ProblemDetails so handlers can write them
// straight to the response.
//
// # Example Usage
//
//	service := NewEventService(EventServiceConfig{
//	    EventRepo:        eventRepository,
//	    NotificationRepo: notificationRepository,
//	})
//	event, err := service.Create(ctx, currentUser, &model.CreateEventRequest{
//	    Title: "Sprint Planning",
//	})
package service

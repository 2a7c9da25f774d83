// Package model defines domain entities and data structures for the
// PlanTogether API.
//
// The model package contains all struct definitions for domain objects,
// request/response types, and error definitions. Models are used across all
// layers of the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - User: Application user with authentication credentials
//   - Event: Planning document with date options, votes, items, comments,
//     and RSVPs
//   - VoteRecord: Per-option tally, accepting both the legacy numeric
//     shape and the structured {count, voters} shape
//   - Notification: Per-user message created by event triggers
//
// # JSON Serialization
//
// All models use json struct tags matching the stored document shape:
//
//	type Event struct {
//	    ID          string   `json:"id"`
//	    Name        string   `json:"name"`
//	    DateOptions []string `json:"dateOptions"`
//	}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
